package internal

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// mountArgs assembles the full adapter command line for one pair.
func (m *Mounter) mountArgs(ctx context.Context, pair Pair, target string) ([]string, error) {
	args := []string{
		m.opts.Adapter, pair.Bucket, target,
		"-o", "passwd_file=/dev/fd/3",
		"-o", "fsname=" + fsname(pair.Profile, pair.Bucket),
	}

	// Dotted bucket names break virtual-hosted TLS; force path-style requests.
	if strings.Contains(pair.Bucket, ".") {
		args = append(args, "-o", "use_path_request_style")
	}

	if m.regions != nil {
		region, err := m.regions.BucketRegion(ctx, pair.Profile, pair.Bucket)
		if err == nil && region != "" {
			args = append(args,
				"-o", "endpoint="+region,
				"-o", fmt.Sprintf("url=https://s3.%s.amazonaws.com", region))
		}
	}

	if m.opts.CacheDir != "" {
		cache := filepath.Join(m.opts.CacheDir, pair.Profile, pair.Bucket)
		if err := os.MkdirAll(cache, 0700); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", cache, err)
		}
		args = append(args,
			"-o", "use_cache="+cache,
			"-o", fmt.Sprintf("ensure_diskfree=%d", m.opts.CacheFloorMB))
	}

	args = append(args, "-o", fmt.Sprintf("parallel_count=%d", m.opts.Parallelism))
	return args, nil
}

// startAdapter launches the mount adapter in the background with the
// credential pair delivered over an anonymous pipe as fd 3. The pipe is never
// represented as a named file, so the secret has no disk-exposure window; the
// session token rides in the adapter's own environment variable.
func (m *Mounter) startAdapter(unit *MountUnit, bundle *Bundle) error {
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	// The pair fits well inside the pipe buffer, so write-then-close before
	// starting the child: the adapter reads the line and sees EOF.
	if _, err := fmt.Fprintf(w, "%s:%s\n", bundle.AccessKeyID, bundle.SecretAccessKey); err != nil {
		r.Close()
		w.Close()
		return err
	}
	w.Close()

	cmd := osexec.Command(unit.Command[0], unit.Command[1:]...)
	cmd.ExtraFiles = []*os.File{r} // fd 3 in the child
	cmd.Env = append(os.Environ(), "AWSSESSIONTOKEN="+bundle.SessionToken)

	if err := cmd.Start(); err != nil {
		r.Close()
		return err
	}
	r.Close()

	// The adapter daemonizes itself; reap the intermediate child.
	go cmd.Wait()
	return nil
}

// unmountCommand returns the platform teardown command for a target path.
func unmountCommand(target string) []string {
	if runtime.GOOS == "darwin" {
		return []string{"umount", target}
	}
	return []string{"fusermount", "-u", target}
}
