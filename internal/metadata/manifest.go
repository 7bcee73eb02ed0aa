package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/trxlogger/internal/models"
	"gopkg.in/yaml.v3"
)

// Default manifest suffixes, tried in order after the binary path.
const (
	DefaultManifestSuffix = ".testmeta.yaml"
	JSONManifestSuffix    = ".testmeta.json"
)

// Manifest lists the test methods of one test binary together with the
// annotations a reflection-capable runtime would read from it.
type Manifest struct {
	Binary string         `mapstructure:"binary"`
	Types  []ManifestType `mapstructure:"types"`

	path string
}

// ManifestType is a type declaring test methods.
type ManifestType struct {
	Name string `mapstructure:"name"`
	// QualifiedName is written as the className of the test; defaults to Name.
	QualifiedName string           `mapstructure:"qualifiedName"`
	Methods       []ManifestMethod `mapstructure:"methods"`
}

// ManifestMethod is one test method and its annotations, in declaration order.
type ManifestMethod struct {
	Name        string            `mapstructure:"name"`
	Description string            `mapstructure:"description"`
	Categories  []string          `mapstructure:"categories"`
	Properties  []models.Property `mapstructure:"properties"`
}

// Path returns the file the manifest was read from.
func (m *Manifest) Path() string {
	return m.path
}

// Lookup implements Binary. The full name is split into type and method at
// the last '.'.
func (m *Manifest) Lookup(fullName string) (*models.TestMetadata, error) {
	typeName, methodName := models.SplitTestName(fullName)

	var typ *ManifestType
	for i := range m.Types {
		if m.Types[i].Name == typeName {
			typ = &m.Types[i]
			break
		}
	}
	if typ == nil {
		return nil, fmt.Errorf("type %q not declared in %s", typeName, m.path)
	}

	for _, method := range typ.Methods {
		if method.Name != methodName {
			continue
		}
		className := typ.QualifiedName
		if className == "" {
			className = typ.Name
		}
		return &models.TestMetadata{
			Description: method.Description,
			Categories:  append([]string(nil), method.Categories...),
			Properties:  append([]models.Property(nil), method.Properties...),
			ClassName:   className,
		}, nil
	}
	return nil, fmt.Errorf("method %q not declared on type %q in %s", methodName, typeName, m.path)
}

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if errs := validateDocument(doc); len(errs) > 0 {
		return nil, fmt.Errorf("invalid manifest: %s", strings.Join(errs, "; "))
	}

	var m Manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: scalarToString,
		Result:     &m,
	})
	if err != nil {
		return nil, fmt.Errorf("creating manifest decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// scalarToString lets property values be written as numbers or booleans.
func scalarToString(from, to reflect.Type, data any) (any, error) {
	if data == nil || to.Kind() != reflect.String || from.Kind() == reflect.String {
		return data, nil
	}
	return fmt.Sprint(data), nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// ManifestLoader is a Loader that finds the manifest of a binary next to it,
// or in Dir when set.
type ManifestLoader struct {
	// Dir is an optional directory holding manifests named after binaries.
	Dir string
	// Suffixes appended to the binary name; defaults to the yaml and json
	// manifest suffixes.
	Suffixes []string
}

// NewManifestLoader returns a loader that also looks in dir (may be empty).
func NewManifestLoader(dir string, suffixes ...string) *ManifestLoader {
	return &ManifestLoader{Dir: dir, Suffixes: suffixes}
}

// Load implements Loader.
func (l *ManifestLoader) Load(binaryPath string) (Binary, error) {
	if binaryPath == "" {
		return nil, errors.New("no source binary recorded for test")
	}

	for _, candidate := range l.candidates(binaryPath) {
		m, err := LoadManifest(candidate)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no test manifest found for %s: %w", binaryPath, os.ErrNotExist)
}

func (l *ManifestLoader) candidates(binaryPath string) []string {
	suffixes := l.Suffixes
	if len(suffixes) == 0 {
		suffixes = []string{DefaultManifestSuffix, JSONManifestSuffix}
	}

	var paths []string
	for _, suffix := range suffixes {
		paths = append(paths, binaryPath+suffix)
	}
	if l.Dir != "" {
		for _, suffix := range suffixes {
			paths = append(paths,
				filepath.Join(l.Dir, SanitizeBinaryName(binaryPath)+suffix),
				filepath.Join(l.Dir, filepath.Base(binaryPath)+suffix))
		}
	}
	return paths
}

// SanitizeBinaryName turns a binary path or package import path into a
// single file name component.
func SanitizeBinaryName(binaryPath string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return strings.Trim(r.Replace(binaryPath), "_.")
}
