package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmgilman/go/exec"
	homedir "github.com/mitchellh/go-homedir"
	ini "gopkg.in/ini.v1"
)

// Timeouts for the short-lived catalog commands. The aws CLI has none of its
// own, so the bound lives here.
const (
	listTimeout   = "30s"
	regionTimeout = "15s"
)

// Catalog enumerates credential profiles from the AWS shared config file and
// asks the external CLI which buckets each profile can see. Listing results
// are memoized for the life of one command invocation only; the catalog is
// externally owned and may change between runs.
type Catalog struct {
	runner     exec.Executor
	configPath string

	// warnf emits user-visible notices (best-effort lookups falling back).
	warnf func(format string, args ...any)

	buckets map[string][]string
	regions map[string]string
}

func stderrWarnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// NewCatalog builds a catalog reading profiles from ~/.aws/config and running
// listing commands through the given executor.
func NewCatalog(runner exec.Executor) (*Catalog, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	return &Catalog{
		runner:     runner,
		configPath: filepath.Join(home, ".aws", "config"),
		warnf:      stderrWarnf,
		buckets:    map[string][]string{},
		regions:    map[string]string{},
	}, nil
}

// NewCatalogAt is NewCatalog with an explicit shared-config path, for tests.
func NewCatalogAt(runner exec.Executor, configPath string) *Catalog {
	return &Catalog{
		runner:     runner,
		configPath: configPath,
		warnf:      stderrWarnf,
		buckets:    map[string][]string{},
		regions:    map[string]string{},
	}
}

// Profiles returns the profile names declared in the shared config file.
// Sections are named `default` or `profile <name>`.
func (c *Catalog) Profiles() ([]string, error) {
	f, err := ini.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var profiles []string
	for _, sec := range f.Sections() {
		name := sec.Name()
		switch {
		case name == "default":
			profiles = append(profiles, name)
		case strings.HasPrefix(name, "profile "):
			profiles = append(profiles, strings.TrimPrefix(name, "profile "))
		}
	}
	sort.Strings(profiles)
	return profiles, nil
}

// HasProfile reports whether the named profile exists in the catalog.
func (c *Catalog) HasProfile(name string) (bool, error) {
	profiles, err := c.Profiles()
	if err != nil {
		return false, err
	}
	for _, p := range profiles {
		if p == name {
			return true, nil
		}
	}
	return false, nil
}

// ListBuckets returns the bucket names visible to the profile, one per output
// line of the listing command (bucket name is the last field). Empty output
// is a valid zero-bucket result; a failed command is ErrCatalogUnavailable.
func (c *Catalog) ListBuckets(ctx context.Context, profile string) ([]string, error) {
	if cached, ok := c.buckets[profile]; ok {
		return cached, nil
	}

	res, err := c.runner.Clone().
		WithContext(ctx).
		WithTimeout(listTimeout).
		WithInheritEnv().
		Run("aws", "s3", "ls", "--profile", profile)
	if err != nil {
		return nil, fmt.Errorf("%w: listing buckets for profile %s: %v", ErrCatalogUnavailable, profile, err)
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[len(fields)-1])
	}

	c.buckets[profile] = names
	return names, nil
}

// BucketRegion returns the bucket's storage region, or "" when the bucket
// lives in the default region (the CLI prints "None" for us-east-1).
func (c *Catalog) BucketRegion(ctx context.Context, profile, bucket string) (string, error) {
	key := profile + "/" + bucket
	if cached, ok := c.regions[key]; ok {
		return cached, nil
	}

	res, err := c.runner.Clone().
		WithContext(ctx).
		WithTimeout(regionTimeout).
		WithInheritEnv().
		Run("aws", "s3api", "get-bucket-location",
			"--bucket", bucket, "--profile", profile, "--output", "text")
	if err != nil {
		// Region lookup is best-effort: a bucket we cannot locate is mounted
		// against the default endpoint.
		c.warnf("⚠️  Region lookup for bucket '%s' (profile '%s') failed, using default endpoint: %v",
			bucket, profile, err)
		return "", nil
	}

	region := strings.TrimSpace(res.Stdout)
	if region == "None" || region == "null" {
		region = ""
	}

	c.regions[key] = region
	return region, nil
}
