// Package curation implements the single legitimate path for mutating a
// Layer-3 recipe file in place: load, mutate, and — only if the mutation
// actually changed something — append one audit event and atomically
// rewrite the file. No other package may write to an existing Layer-3 file.
package curation

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Mutator transforms a loaded recipe in place. It must not touch
// CurationHistory directly; Update appends the audit event itself.
type Mutator func(r *recipe.Recipe) error

// Update loads the Layer-3 recipe at path, applies mutator, and — if the
// mutator changed anything observable — appends a single CurationEvent
// (curatorID, action, notes) before atomically rewriting the file. A
// mutator that leaves the recipe byte-identical produces no event and no
// write beyond the no-op rewrite of the unchanged file.
func Update(path, curatorID, action, notes string, mutator Mutator) (*recipe.Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "read layer-3 recipe")
	}

	var current recipe.Recipe
	if err := yaml.Unmarshal(raw, &current); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "parse layer-3 recipe")
	}

	before, err := yaml.Marshal(current)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "snapshot recipe before mutation")
	}

	if err := mutator(&current); err != nil {
		return nil, err
	}

	after, err := yaml.Marshal(current)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "snapshot recipe after mutation")
	}

	if !bytes.Equal(before, after) {
		current.AppendCurationEvent(curatorID, action, notes)
	}

	if err := writeAtomic(path, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

func writeAtomic(path string, r *recipe.Recipe) error {
	out, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "marshal updated recipe")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".curation-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "create temp recipe file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeStorageError, "write temp recipe file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "close temp recipe file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "publish updated recipe")
	}
	return nil
}
