package render

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
)

// WriteFile atomically replaces outputDir/rel with data, creating any
// missing directories. Readers see either the old or the new file.
func WriteFile(outputDir, rel string, data []byte) error {
	path := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", rel, err)
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", rel, err)
	}

	log.WithFields(log.Fields{
		"path":  path,
		"bytes": len(data),
	}).Debug("Wrote file")

	return nil
}

// CopyFile copies src into outputDir/rel
func CopyFile(src, outputDir, rel string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", src, err)
	}
	return WriteFile(outputDir, rel, data)
}

// CopyDir copies every regular file under srcDir into outputDir/prefix
func CopyDir(srcDir, outputDir, prefix string) (int, error) {
	copied := 0
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if err := CopyFile(path, outputDir, filepath.Join(prefix, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("error copying %s: %w", srcDir, err)
	}
	return copied, nil
}
