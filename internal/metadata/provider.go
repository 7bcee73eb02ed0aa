// Package metadata recovers test information that test runners do not put on
// their results: description text, categories, custom properties, and the
// declaring type. Go has no way to introspect attributes of a foreign test
// binary, so the information comes from a side-car manifest written next to
// the binary when the tests are built.
package metadata

import (
	"errors"
	"log/slog"

	"github.com/spboyer/trxlogger/internal/models"
)

// ErrMetadataUnavailable is returned when the binary cannot be loaded or the
// test cannot be resolved inside it.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// Provider describes tests found in test binaries.
type Provider interface {
	// Describe returns the metadata for the test fullName declared in the
	// binary at binaryPath. Errors wrap ErrMetadataUnavailable.
	Describe(binaryPath, fullName string) (*models.TestMetadata, error)
}

// Binary is a loaded test binary that tests can be looked up in.
type Binary interface {
	Lookup(fullName string) (*models.TestMetadata, error)
}

// Loader loads test binaries.
type Loader interface {
	Load(binaryPath string) (Binary, error)
}

// Resolve returns the metadata for r, falling back to the display name and
// empty categories and properties when p cannot describe it. It never fails;
// a test without metadata must not prevent the report from being written.
func Resolve(p Provider, r *models.TestResult) *models.TestMetadata {
	fallback := models.FallbackMetadata(r)
	if p == nil {
		return fallback
	}

	md, err := p.Describe(r.Source, r.FullName)
	if err != nil {
		slog.Debug("Using fallback metadata", "test", r.FullName, "source", r.Source, "error", err)
		return fallback
	}

	resolved := *md
	if resolved.Description == "" {
		resolved.Description = fallback.Description
	}
	if resolved.ClassName == "" {
		resolved.ClassName = fallback.ClassName
	}
	return &resolved
}
