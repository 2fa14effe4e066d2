package internal

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func testConfig(groups map[string]Group) *Config {
	cfg := &Config{Groups: groups}
	cfg.applyDefaults()
	return cfg
}

func TestResolveStaticPlusWildcardDedup(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"p1"},
		buckets:  map[string][]string{"p1": {"a", "b"}},
	}
	cfg := testConfig(map[string]Group{
		"G": {
			Buckets:  []Pair{{Profile: "p1", Bucket: "a"}},
			Patterns: []Pattern{{Profile: "p1", Pattern: Wildcard}},
		},
	})

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"G"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []Pair{{Profile: "p1", Bucket: "a"}, {Profile: "p1", Bucket: "b"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("Resolve = %v, want %v", pairs, want)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"p1", "p2"},
		buckets: map[string][]string{
			"p1": {"logs-a", "data"},
			"p2": {"logs-b"},
		},
	}
	cfg := testConfig(map[string]Group{
		"logs": {Patterns: []Pattern{{Profile: Wildcard, Pattern: "logs"}}},
		"all":  {Patterns: []Pattern{{Profile: Wildcard, Pattern: Wildcard}}},
	})

	r := NewResolver(cfg, catalog)
	first, _ := r.Resolve(context.Background(), []string{"logs", "all"})
	second, _ := r.Resolve(context.Background(), []string{"logs", "all"})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two resolutions differ: %v vs %v", first, second)
	}
}

func TestResolveWildcardProfileSpansCatalog(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"p1", "p2"},
		buckets: map[string][]string{
			"p1": {"logs-a"},
			"p2": {"logs-b", "other"},
		},
	}
	cfg := testConfig(map[string]Group{
		"logs": {Patterns: []Pattern{{Profile: Wildcard, Pattern: "logs"}}},
	})

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"logs"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []Pair{{Profile: "p1", Bucket: "logs-a"}, {Profile: "p2", Bucket: "logs-b"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("Resolve = %v, want %v", pairs, want)
	}
}

func TestResolveSingleModeRestrictsWildcard(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"default", "p2"},
		buckets: map[string][]string{
			"default": {"a"},
			"p2":      {"b"},
		},
	}
	cfg := testConfig(map[string]Group{
		"G": {Patterns: []Pattern{{Profile: Wildcard, Pattern: Wildcard}}},
	})
	cfg.Defaults.ProfileMode = ProfileModeSingle

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"G"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []Pair{{Profile: "default", Bucket: "a"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("Resolve = %v, want %v", pairs, want)
	}
}

func TestResolveUnknownGroupContinues(t *testing.T) {
	catalog := &fakeCatalog{profiles: []string{"p1"}, buckets: map[string][]string{"p1": {"a"}}}
	cfg := testConfig(map[string]Group{
		"known": {Buckets: []Pair{{Profile: "p1", Bucket: "a"}}},
	})

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"ghost", "known"})

	if len(errs) != 1 || !errors.Is(errs[0], ErrUnknownGroup) {
		t.Errorf("errors = %v, want one ErrUnknownGroup", errs)
	}
	if len(pairs) != 1 || pairs[0].Bucket != "a" {
		t.Errorf("pairs = %v, want the known group resolved anyway", pairs)
	}
}

func TestResolveEmptyGroupListIsEmptyResult(t *testing.T) {
	cfg := testConfig(map[string]Group{})
	pairs, errs := NewResolver(cfg, &fakeCatalog{}).Resolve(context.Background(), nil)
	if len(pairs) != 0 || len(errs) != 0 {
		t.Errorf("Resolve(nil) = (%v, %v), want empty result and no errors", pairs, errs)
	}
}

func TestResolveCatalogFailurePropagates(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"bad", "good"},
		buckets:  map[string][]string{"good": {"x"}},
		bucketsErr: map[string]error{
			"bad": ErrCatalogUnavailable,
		},
	}
	cfg := testConfig(map[string]Group{
		"G": {Patterns: []Pattern{{Profile: Wildcard, Pattern: Wildcard}}},
	})

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"G"})

	if len(errs) != 1 || !errors.Is(errs[0], ErrCatalogUnavailable) {
		t.Errorf("errors = %v, want one ErrCatalogUnavailable", errs)
	}
	if len(pairs) != 1 || pairs[0].Profile != "good" {
		t.Errorf("pairs = %v, want the reachable profile resolved anyway", pairs)
	}
}

func TestResolveZeroBucketProfileIsSilent(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"empty"},
		buckets:  map[string][]string{"empty": nil},
	}
	cfg := testConfig(map[string]Group{
		"G": {Patterns: []Pattern{{Profile: "empty", Pattern: Wildcard}}},
	})

	pairs, errs := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"G"})
	if len(errs) != 0 {
		t.Errorf("zero visible buckets must not be an error, got %v", errs)
	}
	if len(pairs) != 0 {
		t.Errorf("pairs = %v, want none", pairs)
	}
}

func TestResolveSubstringPattern(t *testing.T) {
	catalog := &fakeCatalog{
		profiles: []string{"p1"},
		buckets:  map[string][]string{"p1": {"prod-logs", "prod-data", "dev-logs"}},
	}
	cfg := testConfig(map[string]Group{
		"G": {Patterns: []Pattern{{Profile: "p1", Pattern: "prod"}}},
	})

	pairs, _ := NewResolver(cfg, catalog).Resolve(context.Background(), []string{"G"})
	want := []Pair{{Profile: "p1", Bucket: "prod-logs"}, {Profile: "p1", Bucket: "prod-data"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("Resolve = %v, want %v", pairs, want)
	}
}
