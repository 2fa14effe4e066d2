package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmgilman/go/exec"
)

// SessionDuration is the validity window requested for every issued bundle.
const SessionDuration = 12 * time.Hour

const issueTimeout = "30s"

// ProfileChecker validates that a profile exists before issuance is attempted.
type ProfileChecker interface {
	HasProfile(name string) (bool, error)
}

// stsCredentials is the JSON payload returned by the token-issuing command.
type stsCredentials struct {
	Credentials struct {
		AccessKeyId     string `json:"AccessKeyId"`
		SecretAccessKey string `json:"SecretAccessKey"`
		SessionToken    string `json:"SessionToken"`
		Expiration      string `json:"Expiration"`
	} `json:"Credentials"`
}

// Vault owns the credential lifecycle: lookup in the session secret store,
// expiry detection, purge, and re-issuance through the external STS command.
// At most one live bundle exists per profile.
type Vault struct {
	store    SecretStore
	runner   exec.Executor
	profiles ProfileChecker

	// now is the clock, overridable in tests.
	now func() time.Time

	// warnf emits user-visible notices (expired bundle, refresh in progress).
	warnf func(format string, args ...any)

	mu        sync.Mutex
	profileMu map[string]*sync.Mutex
}

// NewVault builds a vault over the given store and executor. profiles may be
// nil to skip existence validation (tests).
func NewVault(store SecretStore, runner exec.Executor, profiles ProfileChecker) *Vault {
	return &Vault{
		store:    store,
		runner:   runner,
		profiles: profiles,
		now:      time.Now,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
		profileMu: map[string]*sync.Mutex{},
	}
}

func (v *Vault) secretKey(profile string) string {
	return "bucketctl/" + profile
}

// lockFor serializes all vault work for one profile, so two callers observing
// an expired bundle at the same time cannot both invoke the issuing command.
func (v *Vault) lockFor(profile string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.profileMu[profile]
	if !ok {
		m = &sync.Mutex{}
		v.profileMu[profile] = m
	}
	return m
}

// GetOrRefresh returns a valid bundle for the profile, issuing a new one only
// when the cache is absent or expired. A cached valid bundle is returned with
// zero external calls.
func (v *Vault) GetOrRefresh(ctx context.Context, profile string) (*Bundle, error) {
	m := v.lockFor(profile)
	m.Lock()
	defer m.Unlock()

	// Re-read under the lock: a concurrent caller may have refreshed already.
	if b, err := v.cached(profile); err == nil {
		if b.Valid(v.now()) {
			return b, nil
		}
		// Expired bundles are purged before issuance, never silently reused.
		if err := v.store.Delete(v.secretKey(profile)); err != nil {
			return nil, fmt.Errorf("%w: purging expired bundle for %s: %v", ErrIssuanceFailed, profile, err)
		}
		v.warnf("⏰ Session for '%s' expired, refreshing...", profile)
	}

	b, err := v.issue(ctx, profile)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}
	if err := v.store.Set(v.secretKey(profile), raw); err != nil {
		return nil, fmt.Errorf("%w: storing bundle for %s: %v", ErrIssuanceFailed, profile, err)
	}
	return b, nil
}

// Cached returns the stored bundle for the profile without refreshing, or
// ErrSecretNotFound. Used by status reporting.
func (v *Vault) Cached(profile string) (*Bundle, error) {
	m := v.lockFor(profile)
	m.Lock()
	defer m.Unlock()
	return v.cached(profile)
}

func (v *Vault) cached(profile string) (*Bundle, error) {
	raw, err := v.store.Get(v.secretKey(profile))
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		// A corrupt entry is treated as absent after removal.
		if derr := v.store.Delete(v.secretKey(profile)); derr != nil {
			v.warnf("⚠️  Failed to remove corrupt cached bundle for '%s': %v", profile, derr)
		}
		return nil, ErrSecretNotFound
	}
	return &b, nil
}

// Purge removes the cached bundle for the profile, if any.
func (v *Vault) Purge(profile string) error {
	m := v.lockFor(profile)
	m.Lock()
	defer m.Unlock()
	return v.store.Delete(v.secretKey(profile))
}

// issue invokes the external token-issuing command and parses its payload.
func (v *Vault) issue(ctx context.Context, profile string) (*Bundle, error) {
	if v.profiles != nil {
		ok, err := v.profiles.HasProfile(profile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: profile '%s' not found in catalog", ErrIssuanceFailed, profile)
		}
	}

	seconds := fmt.Sprintf("%d", int(SessionDuration.Seconds()))
	res, err := v.runner.Clone().
		WithContext(ctx).
		WithTimeout(issueTimeout).
		WithInheritEnv().
		Run("aws", "sts", "get-session-token",
			"--duration-seconds", seconds,
			"--profile", profile,
			"--output", "json")
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", ErrIssuanceFailed, profile, err)
	}

	var payload stsCredentials
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("%w: unparsable issuance output for %s: %v", ErrIssuanceFailed, profile, err)
	}
	c := payload.Credentials
	if c.AccessKeyId == "" || c.SecretAccessKey == "" || c.SessionToken == "" {
		return nil, fmt.Errorf("%w: incomplete credentials for %s", ErrIssuanceFailed, profile)
	}

	exp, err := time.Parse(time.RFC3339, c.Expiration)
	if err != nil {
		return nil, fmt.Errorf("%w: bad expiration %q for %s: %v", ErrIssuanceFailed, c.Expiration, profile, err)
	}

	return &Bundle{
		AccessKeyID:     c.AccessKeyId,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Expiration:      exp,
	}, nil
}
