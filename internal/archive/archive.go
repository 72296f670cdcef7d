// Package archive packs consultation documents into a single ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"time"
)

const (
	CardFile   = "Cartao_CNPJ.pdf"
	RosterFile = "QSA.pdf"
)

// Bundle is the content of one archive. Roster is optional.
type Bundle struct {
	Name     string
	Card     []byte
	Roster   []byte
	Modified time.Time
}

// FileName is the download name of the bundle.
func (b Bundle) FileName() string {
	return b.Name + ".zip"
}

// Build writes the card and, when present, the roster under a folder named
// after the bundle.
func Build(b Bundle) ([]byte, error) {
	if b.Name == "" {
		return nil, errors.New("archive: empty folder name")
	}
	if len(b.Card) == 0 {
		return nil, errors.New("archive: card document is required")
	}
	if b.Modified.IsZero() {
		b.Modified = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{CardFile, b.Card},
		{RosterFile, b.Roster},
	}
	for _, e := range entries {
		if len(e.data) == 0 {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(b.Name, e.name),
			Method:   zip.Deflate,
			Modified: b.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("archive: create %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
