package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmgilman/go/exec"
)

const unmountTimeout = "20s"

// Defaults for mount verification: up to 6 polls, 5 seconds apart.
const (
	DefaultPollAttempts = 6
	DefaultPollInterval = 5 * time.Second
)

// CredentialSource supplies a valid bundle for a profile.
type CredentialSource interface {
	GetOrRefresh(ctx context.Context, profile string) (*Bundle, error)
}

// RegionLookup resolves a bucket's storage region ("" = default endpoint).
type RegionLookup interface {
	BucketRegion(ctx context.Context, profile, bucket string) (string, error)
}

// MountOptions configures the orchestrator.
type MountOptions struct {
	Base         string // expanded mount base directory
	CacheDir     string // root for per-bucket adapter cache directories
	CacheFloorMB int    // minimum free disk the adapter must preserve
	Parallelism  int    // adapter request parallelism
	Adapter      string // mount adapter binary, default "s3fs"
	PollAttempts int
	PollInterval time.Duration
}

func (o *MountOptions) fill() {
	if o.Adapter == "" {
		o.Adapter = "s3fs"
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultPollAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.CacheFloorMB <= 0 {
		o.CacheFloorMB = 512
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 10
	}
}

// UnmountSelector chooses which live mounts a teardown pass covers.
type UnmountSelector struct {
	All     bool
	Profile string
	Pairs   []Pair
}

// BatchReport counts outcomes of an unmount pass.
type BatchReport struct {
	Done    int
	Skipped int
}

// CleanupReport counts outcomes of a cleanup pass.
type CleanupReport struct {
	Removed int
	Skipped int
}

// Mounter drives the per-bucket mount state machine and the cleanup pass.
type Mounter struct {
	vault   CredentialSource
	table   MountTable
	regions RegionLookup
	runner  exec.Executor
	opts    MountOptions

	// start launches the mount adapter; replaced in tests.
	start func(u *MountUnit, b *Bundle) error

	// procAlive reports whether an adapter process references the target.
	procAlive func(target string) bool

	mu       sync.Mutex
	targetMu map[string]*sync.Mutex
}

// NewMounter builds an orchestrator. The runner executes the unmount command;
// the mount adapter itself is launched directly (it needs a credential pipe).
func NewMounter(vault CredentialSource, table MountTable, regions RegionLookup, runner exec.Executor, opts MountOptions) *Mounter {
	opts.fill()
	m := &Mounter{
		vault:    vault,
		table:    table,
		regions:  regions,
		runner:   runner,
		opts:     opts,
		targetMu: map[string]*sync.Mutex{},
	}
	m.start = m.startAdapter
	m.procAlive = func(target string) bool {
		return mountProcessAlive(opts.Adapter, target)
	}
	return m
}

// lockTarget makes the duplicate-mount check atomic with the mount attempt
// for one target path. Different targets mount independently.
func (m *Mounter) lockTarget(target string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.targetMu[target]
	if !ok {
		mu = &sync.Mutex{}
		m.targetMu[target] = mu
	}
	return mu
}

// Mount establishes the bucket at <base>/<bucket> and verifies it became a
// live mount point. An already-live target short-circuits to MOUNTED with no
// external mount call. The returned unit carries the final state and, on
// failure, the exact command line for manual diagnosis.
func (m *Mounter) Mount(ctx context.Context, pair Pair) (*MountUnit, error) {
	target := filepath.Join(m.opts.Base, pair.Bucket)
	mu := m.lockTarget(target)
	mu.Lock()
	defer mu.Unlock()

	unit := &MountUnit{
		Target:  target,
		Profile: pair.Profile,
		Bucket:  pair.Bucket,
		State:   StateUnmounted,
	}

	mounted, err := m.table.IsMountPoint(target)
	if err == nil && mounted {
		unit.State = StateMounted
		return unit, nil
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		unit.State = StateFailed
		return unit, fmt.Errorf("create mount target %s: %w", target, err)
	}

	bundle, err := m.vault.GetOrRefresh(ctx, pair.Profile)
	if err != nil {
		unit.State = StateFailed
		return unit, err
	}

	args, err := m.mountArgs(ctx, pair, target)
	if err != nil {
		unit.State = StateFailed
		return unit, err
	}
	unit.Command = args

	unit.State = StateMounting
	if err := m.start(unit, bundle); err != nil {
		unit.State = StateFailed
		return unit, fmt.Errorf("start %s: %w", m.opts.Adapter, err)
	}

	unit.State = StateVerifying
	return unit, m.verify(ctx, unit)
}

// verify polls the mount table until the target is live, the adapter process
// disappears, or the poll budget runs out.
func (m *Mounter) verify(ctx context.Context, unit *MountUnit) error {
	retry := strings.Join(unit.Command, " ")

	for attempt := 1; attempt <= m.opts.PollAttempts; attempt++ {
		unit.Polls = attempt

		mounted, err := m.table.IsMountPoint(unit.Target)
		if err == nil && mounted {
			unit.State = StateMounted
			return nil
		}

		// A vanished adapter process cannot register a mount anymore; an
		// adapter that is still running just needs more time.
		if !m.procAlive(unit.Target) {
			unit.State = StateFailed
			return fmt.Errorf("%w: adapter exited before %s became a mount point (retry manually: %s)",
				ErrMountTimeout, unit.Target, retry)
		}

		if attempt == m.opts.PollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			unit.State = StateFailed
			return fmt.Errorf("%w: verification of %s interrupted: %v", ErrMountTimeout, unit.Target, ctx.Err())
		case <-time.After(m.opts.PollInterval):
		}
	}

	unit.State = StateFailed
	return fmt.Errorf("%w: %s not live after %d polls (retry manually: %s)",
		ErrMountTimeout, unit.Target, m.opts.PollAttempts, retry)
}

// matches reports whether a live mount entry falls under the selector.
func (s UnmountSelector) matches(e MountEntry) bool {
	if s.All {
		return true
	}
	if s.Profile != "" {
		return e.Profile() == s.Profile
	}
	for _, p := range s.Pairs {
		if e.Profile() == p.Profile && e.Bucket() == p.Bucket {
			return true
		}
		// Mounts made by other tools carry no provenance; fall back to the
		// target directory name.
		if e.Profile() == "" && filepath.Base(e.Target) == p.Bucket {
			return true
		}
	}
	return false
}

// Unmount tears down every live mount under the base matching the selector.
// A busy or already-gone mount is a skip, never a fatal error.
func (m *Mounter) Unmount(ctx context.Context, sel UnmountSelector, report func(target string, err error)) (BatchReport, error) {
	entries, err := m.table.List(m.opts.Base)
	if err != nil {
		return BatchReport{}, fmt.Errorf("read mount table: %w", err)
	}

	var out BatchReport
	for _, e := range entries {
		if !sel.matches(e) {
			continue
		}

		_, err := m.runner.Clone().
			WithContext(ctx).
			WithTimeout(unmountTimeout).
			Run(unmountCommand(e.Target)...)
		if err != nil {
			out.Skipped++
			if report != nil {
				report(e.Target, fmt.Errorf("%w: %v", ErrMountRejected, err))
			}
			continue
		}
		out.Done++
		if report != nil {
			report(e.Target, nil)
		}
	}
	return out, nil
}

// Cleanup reclaims empty, unmounted immediate children of the mount base.
// Emptiness is the only removal criterion; live mounts and anything holding
// even a single hidden entry are left alone. A fully clean base is success.
func (m *Mounter) Cleanup() (CleanupReport, error) {
	var out CleanupReport

	children, err := os.ReadDir(m.opts.Base)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read mount base %s: %w", m.opts.Base, err)
	}

	base := filepath.Clean(m.opts.Base)
	for _, child := range children {
		if !child.IsDir() {
			continue
		}

		target := filepath.Join(base, child.Name())

		// Malformed names must not walk out of the base.
		if filepath.Dir(filepath.Clean(target)) != base {
			out.Skipped++
			continue
		}

		if mounted, err := m.table.IsMountPoint(target); err != nil || mounted {
			out.Skipped++
			continue
		}

		entries, err := os.ReadDir(target)
		if err != nil || len(entries) > 0 {
			out.Skipped++
			continue
		}

		// The mount table was read before the emptiness check; re-verify so a
		// mount racing in between is never removed.
		if mounted, err := m.table.IsMountPoint(target); err != nil || mounted {
			out.Skipped++
			continue
		}

		if err := os.Remove(target); err != nil {
			out.Skipped++
			continue
		}
		out.Removed++
	}
	return out, nil
}
