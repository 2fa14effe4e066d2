package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/exec"
)

func stsOutput(expiration time.Time) *exec.Result {
	return &exec.Result{
		Stdout: fmt.Sprintf(`{"Credentials":{
			"AccessKeyId":"AKIATEST1234",
			"SecretAccessKey":"SecretKey1234",
			"SessionToken":"Token1234",
			"Expiration":"%s"}}`, expiration.Format(time.RFC3339)),
	}
}

func newTestVault(t *testing.T, runner *fakeRunner, now time.Time) (*Vault, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	v := NewVault(store, runner, nil)
	v.now = func() time.Time { return now }
	v.warnf = func(string, ...any) {}
	return v, store
}

func TestGetOrRefreshCachesBundle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{handler: func(args []string) (*exec.Result, error) {
		return stsOutput(now.Add(12 * time.Hour)), nil
	}}
	v, _ := newTestVault(t, runner, now)

	first, err := v.GetOrRefresh(context.Background(), "dev")
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if first.AccessKeyID != "AKIATEST1234" {
		t.Errorf("AccessKeyID = %q, want AKIATEST1234", first.AccessKeyID)
	}

	second, err := v.GetOrRefresh(context.Background(), "dev")
	if err != nil {
		t.Fatalf("second GetOrRefresh failed: %v", err)
	}
	if second.AccessKeyID != first.AccessKeyID || !second.Expiration.Equal(first.Expiration) {
		t.Error("cached bundle was not returned unchanged")
	}

	if runner.callCount() != 1 {
		t.Errorf("issuing command ran %d times, want 1", runner.callCount())
	}
}

func TestValidCachedBundleIssuesZeroCalls(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{}
	v, store := newTestVault(t, runner, now)

	bundle := &Bundle{
		AccessKeyID:     "CACHED",
		SecretAccessKey: "s",
		SessionToken:    "t",
		Expiration:      now.Add(1000 * time.Second),
	}
	raw, _ := bundleJSON(bundle)
	store.Set("bucketctl/p1", raw)

	got, err := v.GetOrRefresh(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if got.AccessKeyID != "CACHED" {
		t.Errorf("AccessKeyID = %q, want CACHED", got.AccessKeyID)
	}
	if runner.callCount() != 0 {
		t.Errorf("issuing command ran %d times, want 0", runner.callCount())
	}
}

func TestExpirationBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := &Bundle{Expiration: now}
	if b.Valid(now) {
		t.Error("bundle expiring exactly now must be treated as expired")
	}
	if !b.Valid(now.Add(-time.Second)) {
		t.Error("bundle expiring in the future must be valid")
	}
}

func TestExpiredBundlePurgedBeforeReissue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{handler: func(args []string) (*exec.Result, error) {
		return stsOutput(now.Add(12 * time.Hour)), nil
	}}
	v, store := newTestVault(t, runner, now)

	expired := &Bundle{AccessKeyID: "OLD", Expiration: now} // boundary: already expired
	raw, _ := bundleJSON(expired)
	store.Set("bucketctl/p1", raw)

	notices := 0
	v.warnf = func(string, ...any) { notices++ }

	got, err := v.GetOrRefresh(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if got.AccessKeyID == "OLD" {
		t.Error("expired bundle was silently reused")
	}
	if store.deletes == 0 {
		t.Error("expired bundle was not purged before reissue")
	}
	if notices == 0 {
		t.Error("no user-visible refresh notice was emitted")
	}
	if runner.callCount() != 1 {
		t.Errorf("issuing command ran %d times, want 1", runner.callCount())
	}
}

func TestConcurrentRefreshIssuesOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{handler: func(args []string) (*exec.Result, error) {
		// Hold the issuing call open so racing callers pile up on the lock.
		time.Sleep(10 * time.Millisecond)
		return stsOutput(now.Add(12 * time.Hour)), nil
	}}
	v, store := newTestVault(t, runner, now)

	expired := &Bundle{AccessKeyID: "OLD", Expiration: now}
	raw, _ := bundleJSON(expired)
	store.Set("bucketctl/p1", raw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := v.GetOrRefresh(context.Background(), "p1")
			if err != nil {
				t.Errorf("GetOrRefresh failed: %v", err)
				return
			}
			if b.AccessKeyID == "OLD" {
				t.Error("expired bundle was handed to a concurrent caller")
			}
		}()
	}
	wg.Wait()

	if runner.callCount() != 1 {
		t.Errorf("issuing command ran %d times, want 1", runner.callCount())
	}
}

func TestIssuanceCommandFailure(t *testing.T) {
	now := time.Now()
	runner := &fakeRunner{handler: func(args []string) (*exec.Result, error) {
		return &exec.Result{ExitCode: 255}, &exec.ExecError{Command: args, ExitCode: 255}
	}}
	v, _ := newTestVault(t, runner, now)

	_, err := v.GetOrRefresh(context.Background(), "p1")
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("error = %v, want ErrIssuanceFailed", err)
	}
}

func TestIssuanceUnparsableOutput(t *testing.T) {
	now := time.Now()
	runner := &fakeRunner{handler: func(args []string) (*exec.Result, error) {
		return &exec.Result{Stdout: "not json at all"}, nil
	}}
	v, _ := newTestVault(t, runner, now)

	_, err := v.GetOrRefresh(context.Background(), "p1")
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("error = %v, want ErrIssuanceFailed", err)
	}
}

func TestIssuanceRejectsUnknownProfile(t *testing.T) {
	now := time.Now()
	runner := &fakeRunner{}
	store := newFakeStore()
	v := NewVault(store, runner, &fakeCatalog{profiles: []string{"known"}})
	v.now = func() time.Time { return now }
	v.warnf = func(string, ...any) {}

	_, err := v.GetOrRefresh(context.Background(), "missing")
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("error = %v, want ErrIssuanceFailed", err)
	}
	if runner.callCount() != 0 {
		t.Error("issuing command must not run for an unknown profile")
	}
}

func TestCorruptCachedBundleReportsFailedRemoval(t *testing.T) {
	now := time.Now()
	v, store := newTestVault(t, &fakeRunner{}, now)

	store.Set("bucketctl/p1", []byte("not json"))
	store.deleteErr = errors.New("keyring wedged")

	notices := 0
	v.warnf = func(string, ...any) { notices++ }

	if _, err := v.Cached("p1"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Cached = %v, want ErrSecretNotFound", err)
	}
	if notices != 1 {
		t.Errorf("failed removal emitted %d notices, want 1", notices)
	}
}

func TestPurgeRemovesCachedBundle(t *testing.T) {
	now := time.Now()
	v, store := newTestVault(t, &fakeRunner{}, now)

	raw, _ := bundleJSON(&Bundle{AccessKeyID: "X", Expiration: now.Add(time.Hour)})
	store.Set("bucketctl/p1", raw)

	if err := v.Purge("p1"); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if _, err := v.Cached("p1"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Cached after Purge = %v, want ErrSecretNotFound", err)
	}
}
