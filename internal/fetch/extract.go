package fetch

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Extract unpacks archive into dest, keeping the archive's own top-level
// directory. The format is chosen from the file name: names containing
// ".tar" are tarballs compressed according to their suffix, names
// containing ".zip" are zip files.
func Extract(archive, dest string) error {
	name := filepath.Base(archive)
	var err error
	switch {
	case strings.Contains(name, ".tar") || strings.HasSuffix(name, ".tgz"):
		err = extractTar(archive, dest)
	case strings.Contains(name, ".zip"):
		err = unzip(archive, dest)
	default:
		err = fmt.Errorf("unsupported archive format: %s", name)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}
	return nil
}

// within returns the path of name under dest, rejecting entries that
// would land outside it.
func within(dest, name string) (string, error) {
	p := filepath.Join(dest, name)
	if !inside(dest, p) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return p, nil
}

func inside(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// checkParent rejects target when the directory holding it resolves,
// through symlinks, to a place outside realDest. Missing directories are
// resolved through their nearest existing ancestor.
func checkParent(realDest, target string) error {
	dir := filepath.Dir(target)
	for {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if !inside(realDest, resolved) {
		return fmt.Errorf("illegal file path in archive: %s is written through a symlink leaving the destination", target)
	}
	return nil
}

// checkLink rejects a symlink at target whose link text is absolute or
// points outside realDest.
func checkLink(realDest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("illegal symlink in archive: %s -> %s", target, linkname)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return err
	}
	if !inside(realDest, filepath.Join(parent, linkname)) {
		return fmt.Errorf("illegal symlink in archive: %s -> %s", target, linkname)
	}
	return nil
}

func extractTar(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	if dest, err = filepath.Abs(dest); err != nil {
		return err
	}
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	var r io.Reader = f
	switch {
	case strings.HasSuffix(archive, ".gz") || strings.HasSuffix(archive, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip reader for %s: %w", archive, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(archive, ".bz2") || strings.HasSuffix(archive, ".bz"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(archive, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("xz reader for %s: %w", archive, err)
		}
		r = xr
	case strings.HasSuffix(archive, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("zstd reader for %s: %w", archive, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(archive, ".tar"):
	default:
		return fmt.Errorf("unsupported tar compression: %s", filepath.Base(archive))
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header in %s: %w", archive, err)
		}
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := within(dest, hdr.Name)
		if err != nil {
			return err
		}
		if err := checkParent(realDest, target); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLink(realDest, target, hdr.Linkname); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("symlink %s -> %s: %w", target, hdr.Linkname, err)
			}
		case tar.TypeLink:
			src, err := within(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := checkParent(realDest, src); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Link(src, target); err != nil {
				return fmt.Errorf("link %s -> %s: %w", target, hdr.Linkname, err)
			}
		}
	}
}

func unzip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	if dest, err = filepath.Abs(dest); err != nil {
		return err
	}
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		fpath, err := within(dest, f.Name)
		if err != nil {
			return err
		}
		if err := checkParent(realDest, fpath); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(fpath, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeFile replaces a symlink at path instead of writing through it.
func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
