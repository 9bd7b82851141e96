package harness

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stage replaces c.Work with a fresh copy of c.Source. Whatever a previous
// run left there is discarded. The copy is owner-writable even when the
// fixtures are not, so the binary can write its output next to them.
func Stage(c Case) error {
	if c.Work == "" {
		return fmt.Errorf("%w: case %s has no working directory", ErrStage, c.ID)
	}
	if err := os.RemoveAll(c.Work); err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrStage, c.Work, err)
	}
	if err := copyTree(c.Source, c.Work); err != nil {
		return fmt.Errorf("%w: case %s: %w", ErrStage, c.ID, err)
	}
	return nil
}

// copyTree copies src into dst recursively, following symlinks.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		fi, err := os.Stat(from)
		if err != nil {
			return err
		}
		switch {
		case fi.IsDir():
			if err := copyTree(from, to); err != nil {
				return err
			}
		case fi.Mode().IsRegular():
			if err := copyFile(from, to, fi.Mode().Perm()|0o600); err != nil {
				return err
			}
		default:
			return fmt.Errorf("copy %s: unsupported file type %s", from, fi.Mode().Type())
		}
	}
	return nil
}

// copyFile copies src to dst with the given permissions.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
