package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// resolveGit shallow-clones a remote into a temporary directory. A URL fragment
// names the branch or tag: https://host/org/repo.git#v1.2.
func (r *Resolver) resolveGit(ctx context.Context, id string) (*Lease, error) {
	remote, ref := id, ""
	if idx := strings.LastIndex(id, "#"); idx >= 0 {
		remote, ref = id[:idx], id[idx+1:]
	}
	name := repoNameFromURL(remote)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("cannot derive a repository name from %q", remote)
	}

	dir, err := r.tempDir("archlens-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating clone directory: %w", err)
	}
	target := filepath.Join(dir, name)

	depth := r.cfg.CloneDepth
	if depth <= 0 {
		depth = 1
	}
	args := []string{"clone", "--quiet", "--depth", strconv.Itoa(depth)}
	if ref != "" {
		args = append(args, "--branch", ref, "--single-branch")
	}
	args = append(args, "--", remote, target)

	r.logger.Info("Cloning repository", "remote", remote, "ref", ref, "depth", depth)
	if err := r.git(ctx, args...); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	return &Lease{Path: target, Name: name, Kind: KindGit, release: r.removeLater(dir)}, nil
}
