package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spherical/vie-ocr/internal/domain"
)

// Persist writes the transcript to path as UTF-8 text. The file is written
// to a temporary sibling and renamed into place, so a failed write never
// leaves a truncated transcript behind.
func Persist(transcript *domain.Transcript, path string) error {
	if path == "" {
		return domain.PersistError("output path cannot be empty", nil)
	}

	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil {
		return domain.PersistError(fmt.Sprintf("output directory is not accessible: %s", dir), err)
	} else if !info.IsDir() {
		return domain.PersistError(fmt.Sprintf("output directory is not a directory: %s", dir), nil)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return domain.PersistError(fmt.Sprintf("output path is a directory: %s", path), nil)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domain.PersistError(fmt.Sprintf("cannot create output file in %s", dir), err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.WriteString(transcript.String()); err != nil {
		_ = tmp.Close()
		cleanup()
		return domain.PersistError(fmt.Sprintf("cannot write %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return domain.PersistError(fmt.Sprintf("cannot write %s", path), err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return domain.PersistError(fmt.Sprintf("cannot write %s", path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return domain.PersistError(fmt.Sprintf("cannot write %s", path), err)
	}
	return nil
}
