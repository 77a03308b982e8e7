package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nconklindev/mir4split/internal/types"
)

// Name is the download name for a run in mode.
func Name(mode types.Mode) string {
	return fmt.Sprintf("MIR4_%s_Split.zip", mode.Label())
}

// Write zips every entry of a in order.
func Write(w io.Writer, a *types.Archive) error {
	zw := zip.NewWriter(w)

	for _, e := range a.Entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(e.Data); err != nil {
			return err
		}
	}

	return zw.Close()
}

// Save writes the zip for a into dir and returns its path.
func Save(dir string, a *types.Archive) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, Name(a.Mode))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := Write(f, a); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Extract writes every entry of a into dir as a separate workbook.
func Extract(dir string, a *types.Archive) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, a.Len())
	for _, e := range a.Entries {
		path := filepath.Join(dir, e.Name)
		if err := os.WriteFile(path, e.Data, 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
