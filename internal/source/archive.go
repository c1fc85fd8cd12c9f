package source

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const defaultMaxArchiveBytes = 512 << 20

// ErrArchiveTooLarge is returned when an archive exceeds the configured size.
var ErrArchiveTooLarge = errors.New("archive exceeds size limit")

// resolveArchive downloads and extracts a .tar.gz into a temporary directory.
// A single top-level directory, as produced by forge tarballs, becomes the root.
func (r *Resolver) resolveArchive(ctx context.Context, id string) (*Lease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading archive: unexpected status %s", resp.Status)
	}

	dir, err := r.tempDir("archlens-archive-*")
	if err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	limit := r.cfg.MaxArchiveBytes
	if limit <= 0 {
		limit = defaultMaxArchiveBytes
	}
	r.logger.Info("Extracting archive", "url", id)
	if err := extractTarGz(io.LimitReader(resp.Body, limit+1), dir, limit); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	root, err := archiveRoot(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	name := repoNameFromURL(id)
	if root != dir {
		name = filepath.Base(root)
	}
	return &Lease{Path: root, Name: name, Kind: KindArchive, release: r.removeLater(dir)}, nil
}

// extractTarGz writes regular files and directories under dest. Entries that
// would land outside dest are rejected; links and devices are skipped.
func extractTarGz(r io.Reader, dest string, limit int64) error {
	counted := &countingReader{r: r}
	gz, err := gzip.NewReader(counted)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var written int64
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if counted.n > limit {
				return ErrArchiveTooLarge
			}
			return fmt.Errorf("reading tar stream: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			written += hdr.Size
			if written > limit {
				return ErrArchiveTooLarge
			}
			if err := writeFile(target, tr, hdr.Size); err != nil {
				return err
			}
		default:
			continue
		}
	}
	if counted.n > limit {
		return ErrArchiveTooLarge
	}
	return nil
}

// safeJoin resolves an archive entry name under dest, refusing traversal.
// Absolute names are re-rooted at dest.
func safeJoin(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
		}
	}
	return filepath.Join(dest, filepath.FromSlash(path.Clean("/"+name))), nil
}

func writeFile(target string, r io.Reader, size int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, r, size); err != nil && err != io.EOF {
		f.Close()
		return err
	}
	return f.Close()
}

// archiveRoot descends into a lone top-level directory.
func archiveRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
