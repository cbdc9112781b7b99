package supplier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidCatalog is returned when the catalog file is malformed.
	ErrInvalidCatalog = errors.New("supplier: invalid catalog")
	// ErrCatalogNotFound is returned when the catalog file does not exist.
	ErrCatalogNotFound = errors.New("supplier: catalog file not found")
)

// Catalog is the on-disk list of suppliers.
type Catalog struct {
	Suppliers []Location `yaml:"suppliers"`
}

// LoadCatalog reads and validates a YAML supplier catalog.
func LoadCatalog(path string) ([]Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML. Order is preserved.
func ParseCatalog(data []byte) ([]Location, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := Validate(c.Suppliers); err != nil {
		return nil, err
	}
	return c.Suppliers, nil
}

// Validate checks ids, names, coordinates and pricing of every location.
func Validate(locations []Location) error {
	seen := make(map[string]bool, len(locations))
	for i, loc := range locations {
		if loc.ID == "" {
			return fmt.Errorf("%w: supplier #%d has no id", ErrInvalidCatalog, i+1)
		}
		if seen[loc.ID] {
			return fmt.Errorf("%w: duplicate supplier id %q", ErrInvalidCatalog, loc.ID)
		}
		seen[loc.ID] = true

		if loc.Name == "" {
			return fmt.Errorf("%w: supplier %q has no name", ErrInvalidCatalog, loc.ID)
		}
		if err := loc.Point().Validate(); err != nil {
			return fmt.Errorf("%w: supplier %q: %v", ErrInvalidCatalog, loc.ID, err)
		}
		if err := loc.Pricing.Validate(); err != nil {
			return fmt.Errorf("%w: supplier %q: %v", ErrInvalidCatalog, loc.ID, err)
		}
	}
	return nil
}
