package internal

import (
	"fmt"
	"time"
)

// Bundle is a short-lived credential set issued for one profile.
// It lives only in the session secret store, never on disk.
type Bundle struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
	Expiration      time.Time `json:"expiration"`
}

// Valid reports whether the bundle is still usable at the given instant.
// A bundle expiring exactly now is already expired.
func (b *Bundle) Valid(now time.Time) bool {
	return now.Before(b.Expiration)
}

// Pair is one (profile, bucket) combination selected for mounting.
type Pair struct {
	Profile string `yaml:"profile" json:"profile"`
	Bucket  string `yaml:"bucket" json:"bucket"`
}

func (p Pair) String() string {
	return p.Profile + ":" + p.Bucket
}

// MountState tracks a mount unit through its lifecycle.
type MountState int

const (
	StateUnmounted MountState = iota
	StateMounting
	StateVerifying
	StateMounted
	StateUnmounting
	StateFailed
)

func (s MountState) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateMounting:
		return "mounting"
	case StateVerifying:
		return "verifying"
	case StateMounted:
		return "mounted"
	case StateUnmounting:
		return "unmounting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MountUnit is the runtime association between a bucket and a local directory.
type MountUnit struct {
	Target  string
	Profile string
	Bucket  string
	State   MountState

	// Command is the exact mount command line, kept for troubleshooting output
	// when verification fails.
	Command []string

	// Polls counts verification attempts performed for this unit.
	Polls int
}
