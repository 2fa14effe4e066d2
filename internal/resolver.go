package internal

import (
	"context"
	"fmt"
	"strings"
)

// Wildcard matches every profile (as a pattern-rule profile selector) or
// every bucket (as a pattern text).
const Wildcard = "*"

// BucketCatalog is the slice of the profile catalog the resolver needs.
type BucketCatalog interface {
	Profiles() ([]string, error)
	ListBuckets(ctx context.Context, profile string) ([]string, error)
}

// Resolver expands group definitions into a deduplicated set of
// (profile, bucket) pairs.
type Resolver struct {
	cfg     *Config
	catalog BucketCatalog
}

// NewResolver builds a resolver over the given config and catalog.
func NewResolver(cfg *Config, catalog BucketCatalog) *Resolver {
	return &Resolver{cfg: cfg, catalog: catalog}
}

// Resolve expands the named groups. Pairs keep first-seen order and exact
// duplicates collapse to one entry. Failures (unknown group, unreachable
// catalog for a profile) are collected per item and resolution continues;
// the caller decides whether partial results are acceptable.
func (r *Resolver) Resolve(ctx context.Context, groupNames []string) ([]Pair, []error) {
	var (
		pairs []Pair
		errs  []error
		seen  = map[Pair]struct{}{}
	)

	add := func(p Pair) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	for _, name := range groupNames {
		group, ok := r.cfg.Groups[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownGroup, name))
			continue
		}

		for _, p := range group.Buckets {
			add(p)
		}

		for _, rule := range group.Patterns {
			candidates, err := r.candidateProfiles(rule.Profile)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, profile := range candidates {
				buckets, err := r.catalog.ListBuckets(ctx, profile)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				// Zero visible buckets contributes nothing, silently.
				for _, bucket := range buckets {
					if rule.Pattern == Wildcard || strings.Contains(bucket, rule.Pattern) {
						add(Pair{Profile: profile, Bucket: bucket})
					}
				}
			}
		}
	}

	return pairs, errs
}

// candidateProfiles expands a pattern rule's profile selector. The wildcard
// covers every catalog profile in "all" mode, and only the configured default
// profile in "single" mode.
func (r *Resolver) candidateProfiles(selector string) ([]string, error) {
	if selector != Wildcard {
		return []string{selector}, nil
	}
	if r.cfg.Defaults.ProfileMode == ProfileModeSingle {
		return []string{r.cfg.Defaults.Profile}, nil
	}
	return r.catalog.Profiles()
}
