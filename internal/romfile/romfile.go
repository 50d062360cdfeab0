// Package romfile loads cartridge images from disk, decompressing
// common archive formats transparently.
package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// Load reads a ROM image. Plain .gb files are returned as-is; .gz,
// .zip and .7z files yield their first (or only) entry.
func Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var dec io.Reader
	switch ext := filepath.Ext(filename); ext {
	case ".gz":
		dec, err = gzip.NewReader(bytes.NewReader(data))
	case ".zip":
		r, zerr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if zerr != nil {
			return nil, fmt.Errorf("open zip %s: %w", filename, zerr)
		}
		if len(r.File) == 0 {
			return nil, fmt.Errorf("zip %s is empty", filename)
		}
		dec, err = r.File[0].Open()
	case ".7z":
		r, zerr := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if zerr != nil {
			return nil, fmt.Errorf("open 7z %s: %w", filename, zerr)
		}
		if len(r.File) == 0 {
			return nil, fmt.Errorf("7z %s is empty", filename)
		}
		dec, err = r.File[0].Open()
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", filename, err)
	}

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", filename, err)
	}
	return out, nil
}
