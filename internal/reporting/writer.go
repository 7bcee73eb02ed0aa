package reporting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/gzip"
)

// ErrIOFailure is returned when the report cannot be written.
var ErrIOFailure = errors.New("io failure")

// Write serializes doc as indented UTF-8 XML and replaces the content of the
// file at path, creating its directory if needed.
func Write(doc *etree.Document, path string) error {
	doc.Indent(2)

	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("%w: serializing TRX document: %w", ErrIOFailure, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating results directory: %w", ErrIOFailure, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIOFailure, path, err)
	}
	return nil
}

// WriteArchive writes a gzip-compressed copy of the report at path to
// path+".gz" and returns the archive path.
func WriteArchive(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrIOFailure, path, err)
	}

	archivePath := path + ".gz"
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrIOFailure, archivePath, err)
	}
	defer f.Close() //nolint:errcheck

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	zw.Name = filepath.Base(path)
	zw.ModTime = time.Now()

	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("%w: compressing %s: %w", ErrIOFailure, path, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: compressing %s: %w", ErrIOFailure, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %w", ErrIOFailure, archivePath, err)
	}
	return archivePath, nil
}

// DefaultFileName returns the name used when no file name is configured:
// "{user}_{host} {yyyy-MM-dd HH_mm_ss}.trx".
func DefaultFileName(id RunIdentity, t time.Time) string {
	clean := strings.NewReplacer("/", "_", `\`, "_", ":", "_")
	return fmt.Sprintf("%s_%s %s.trx",
		clean.Replace(id.User), clean.Replace(id.Host), t.Format("2006-01-02 15_04_05"))
}

// ResolvePath returns the path of the report inside dir. An empty fileName
// selects DefaultFileName.
func ResolvePath(dir, fileName string, id RunIdentity, t time.Time) string {
	if fileName == "" {
		fileName = DefaultFileName(id, t)
	}
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(dir, fileName)
}
