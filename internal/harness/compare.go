package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/ppiankov/regress/internal/udiff"
)

// Reference artifact locations inside a case directory.
const (
	PrimaryArtifact = "output.log"
	ArtifactDir     = "regression"
)

// Comparison is the result of checking a case's produced artifacts
// against its references.
type Comparison struct {
	Artifacts []string // reference set, in enumeration order
	Missing   []string
	Diffs     []DiffRecord
}

// Clean reports whether every artifact exists and none differ.
func (c Comparison) Clean() bool {
	return len(c.Missing) == 0 && len(c.Diffs) == 0
}

// ReferenceArtifacts returns the baseline files of a case as
// slash-separated paths relative to sourceDir: output.log first when
// present, then the regular files directly inside regression/ in
// lexical order. Subdirectories of regression/ are not descended into.
func ReferenceArtifacts(sourceDir string) ([]string, error) {
	var refs []string

	info, err := os.Stat(filepath.Join(sourceDir, PrimaryArtifact))
	switch {
	case err == nil && info.Mode().IsRegular():
		refs = append(refs, PrimaryArtifact)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	dir := filepath.Join(sourceDir, ArtifactDir)
	info, err = os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return refs, nil
	}
	if err != nil {
		return nil, err
	}

	// ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		fi, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if fi.Mode().IsRegular() {
			refs = append(refs, path.Join(ArtifactDir, e.Name()))
		}
	}
	return refs, nil
}

// Compare diffs every reference artifact of c against the file at the
// same relative path in c.Work. Artifacts missing from c.Work are listed
// in Missing and not diffed. An error means an artifact could not be read.
func Compare(c Case) (Comparison, error) {
	refs, err := ReferenceArtifacts(c.Source)
	if err != nil {
		return Comparison{}, fmt.Errorf("list reference artifacts: %w", err)
	}

	cmp := Comparison{Artifacts: refs}
	for _, rel := range refs {
		produced := filepath.Join(c.Work, filepath.FromSlash(rel))
		if _, err := os.Stat(produced); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				cmp.Missing = append(cmp.Missing, rel)
				continue
			}
			return cmp, err
		}

		text, err := diffArtifact(c, rel)
		if err != nil {
			return cmp, err
		}
		if text != "" {
			cmp.Diffs = append(cmp.Diffs, DiffRecord{CaseID: c.ID, Path: rel, Text: text})
		}
	}
	return cmp, nil
}

func diffArtifact(c Case, rel string) (string, error) {
	want, err := os.ReadFile(filepath.Join(c.Source, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	got, err := os.ReadFile(filepath.Join(c.Work, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	if bytes.Equal(want, got) {
		return "", nil
	}
	return udiff.Unified(
		fmt.Sprintf("Reference/%s/%s", c.ID, rel),
		fmt.Sprintf("Result/%s/%s", c.ID, rel),
		udiff.SplitLines(want),
		udiff.SplitLines(got),
		udiff.DefaultContext,
	), nil
}
