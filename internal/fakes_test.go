package internal

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/jmgilman/go/exec"
)

func bundleJSON(b *Bundle) ([]byte, error) {
	return json.Marshal(b)
}

// fakeRunner is a scriptable exec.Executor. Every Run call is recorded;
// handler decides the outcome.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(args []string) (*exec.Result, error)
}

func (f *fakeRunner) Run(args ...string) (*exec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	if f.handler != nil {
		return f.handler(args)
	}
	return &exec.Result{}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) WithEnv(map[string]string) exec.Executor { return f }

func (f *fakeRunner) WithDir(string) exec.Executor { return f }

func (f *fakeRunner) WithContext(context.Context) exec.Executor { return f }

func (f *fakeRunner) WithDisableColors() exec.Executor { return f }

func (f *fakeRunner) WithTimeout(string) exec.Executor { return f }

func (f *fakeRunner) WithInheritEnv() exec.Executor { return f }

func (f *fakeRunner) WithStdout(io.Writer) exec.Executor { return f }

func (f *fakeRunner) WithStderr(io.Writer) exec.Executor { return f }

func (f *fakeRunner) WithPassthrough() exec.Executor { return f }

func (f *fakeRunner) Clone() exec.Executor { return f }

// fakeStore is an in-memory SecretStore.
type fakeStore struct {
	mu        sync.Mutex
	entries   map[string][]byte
	deletes   int
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string][]byte{}}
}

func (s *fakeStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, ErrSecretNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *fakeStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.entries, key)
	s.deletes++
	return nil
}

// fakeCatalog serves scripted profiles and bucket lists.
type fakeCatalog struct {
	profiles    []string
	profilesErr error
	buckets     map[string][]string
	bucketsErr  map[string]error
}

func (c *fakeCatalog) Profiles() ([]string, error) {
	return c.profiles, c.profilesErr
}

func (c *fakeCatalog) ListBuckets(_ context.Context, profile string) ([]string, error) {
	if err, ok := c.bucketsErr[profile]; ok {
		return nil, err
	}
	return c.buckets[profile], nil
}

func (c *fakeCatalog) HasProfile(name string) (bool, error) {
	if c.profilesErr != nil {
		return false, c.profilesErr
	}
	for _, p := range c.profiles {
		if p == name {
			return true, nil
		}
	}
	return false, nil
}

// fakeTable is a scriptable mount table.
type fakeTable struct {
	mountedFn func(path string) (bool, error)
	entries   []MountEntry
}

func (t *fakeTable) IsMountPoint(path string) (bool, error) {
	if t.mountedFn != nil {
		return t.mountedFn(path)
	}
	return false, nil
}

func (t *fakeTable) List(string) ([]MountEntry, error) {
	return t.entries, nil
}

// fakeVault hands out a fixed bundle.
type fakeVault struct {
	bundle *Bundle
	err    error
	calls  int
}

func (v *fakeVault) GetOrRefresh(context.Context, string) (*Bundle, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.bundle, nil
}
