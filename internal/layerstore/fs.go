package layerstore

import (
	"os"
	"path/filepath"

	"github.com/culturemech/culturemech/pkg/errors"
)

// atomicWrite writes content to target via a temp-file-plus-rename in the
// same directory, so a crash mid-write never leaves a partial layer record;
// the same convention the ontology client's FileCache uses.
func atomicWrite(target string, content []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: create directory "+dir)
	}

	tmp, err := os.CreateTemp(dir, ".layerstore-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: create temp file in "+dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeInternal, "layerstore: write temp file "+tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeInternal, "layerstore: sync temp file "+tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: close temp file "+tmpPath)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: rename into place "+target)
	}
	return nil
}
