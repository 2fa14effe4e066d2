package internal

import (
	"strings"

	"github.com/moby/sys/mountinfo"
	"github.com/shirou/gopsutil/v4/process"
)

// fsnamePrefix marks mounts created by this tool. The fsname encodes mount
// provenance as bucketctl#<profile>@<bucket>, so profile-scoped unmount stays
// precise across runs without any durable state of our own.
const fsnamePrefix = "bucketctl#"

// MountEntry is one row of the live mount table.
type MountEntry struct {
	Target string
	Source string
	FSType string
}

// Profile returns the owning profile encoded in the mount source, or "".
func (e MountEntry) Profile() string {
	profile, _, ok := splitFsname(e.Source)
	if !ok {
		return ""
	}
	return profile
}

// Bucket returns the bucket name encoded in the mount source, or "".
func (e MountEntry) Bucket() string {
	_, bucket, ok := splitFsname(e.Source)
	if !ok {
		return ""
	}
	return bucket
}

func fsname(profile, bucket string) string {
	return fsnamePrefix + profile + "@" + bucket
}

func splitFsname(source string) (profile, bucket string, ok bool) {
	rest, found := strings.CutPrefix(source, fsnamePrefix)
	if !found {
		return "", "", false
	}
	profile, bucket, found = strings.Cut(rest, "@")
	if !found {
		return "", "", false
	}
	return profile, bucket, true
}

// MountTable is the live mount table, an externally-owned source of truth.
// Results are never cached beyond a single query.
type MountTable interface {
	// IsMountPoint reports whether the path is currently a live mount point.
	IsMountPoint(path string) (bool, error)

	// List returns the fuse mounts whose target lies under base.
	List(base string) ([]MountEntry, error)
}

type kernelMountTable struct{}

// NewMountTable returns the kernel-backed mount table.
func NewMountTable() MountTable {
	return kernelMountTable{}
}

func (kernelMountTable) IsMountPoint(path string) (bool, error) {
	return mountinfo.Mounted(path)
}

func (kernelMountTable) List(base string) ([]MountEntry, error) {
	infos, err := mountinfo.GetMounts(mountinfo.PrefixFilter(base))
	if err != nil {
		return nil, err
	}

	var entries []MountEntry
	for _, info := range infos {
		if !strings.HasPrefix(info.FSType, "fuse") {
			continue
		}
		entries = append(entries, MountEntry{
			Target: info.Mountpoint,
			Source: info.Source,
			FSType: info.FSType,
		})
	}
	return entries, nil
}

// mountProcessAlive reports whether a live mount adapter process references
// the target path. A still-running adapter that has not yet registered its
// mount point means verification should keep polling rather than fail.
func mountProcessAlive(adapter, target string) bool {
	procs, err := process.Processes()
	if err != nil {
		return false
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !strings.Contains(name, adapter) {
			continue
		}
		cmdline, err := p.Cmdline()
		if err == nil && strings.Contains(cmdline, target) {
			return true
		}
	}
	return false
}
