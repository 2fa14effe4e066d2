package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chukul/bucketctl/internal"
	"github.com/jmgilman/go/exec"
	homedir "github.com/mitchellh/go-homedir"
)

// runContext returns a context cancelled on Ctrl-C / SIGTERM so verification
// polling never leaves a mount in an ambiguous state.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadStack wires the config, catalog, and vault the way every command needs
// them. Config-load failures and a missing secret store are fatal.
func loadStack() (*internal.Config, *internal.Catalog, *internal.Vault, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = internal.DefaultConfigPath()
		if err != nil {
			return nil, nil, nil, err
		}
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog, err := internal.NewCatalog(exec.New())
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := internal.NewSecretStore()
	if err != nil {
		return nil, nil, nil, err
	}

	vault := internal.NewVault(store, exec.New(), catalog)
	return cfg, catalog, vault, nil
}

// newMounter builds the orchestrator over the loaded stack.
func newMounter(cfg *internal.Config, vault *internal.Vault, catalog *internal.Catalog) (*internal.Mounter, error) {
	base, err := cfg.MountBase()
	if err != nil {
		return nil, err
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	opts := internal.MountOptions{
		Base:     base,
		CacheDir: filepath.Join(home, ".bucketctl", "cache"),
	}
	return internal.NewMounter(vault, internal.NewMountTable(), catalog, exec.New(), opts), nil
}
