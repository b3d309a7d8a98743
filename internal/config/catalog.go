package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	FitCover     = "cover"
	FitContain   = "contain"
	FitScaleDown = "scale-down"
	FitCrop      = "crop"
	FitPad       = "pad"
)

// Size is one rendering target of a catalog entry.
type Size struct {
	Width  int    `yaml:"width" validate:"gt=0"`
	Height int    `yaml:"height" validate:"gt=0"`
	Fit    string `yaml:"fit" validate:"omitempty,oneof=cover contain scale-down crop pad"`
}

// CatalogEntry describes how images of one type tag are rendered.
type CatalogEntry struct {
	Full         Size   `yaml:"full_size"`
	Thumb        Size   `yaml:"thumb_size"`
	FullVariant  string `yaml:"full_variant"`
	ThumbVariant string `yaml:"thumb_variant"`
}

// Catalog maps a type tag to its entry. Read-only after Load.
type Catalog map[string]CatalogEntry

func DefaultCatalog() Catalog {
	return Catalog{
		"product": {
			Full:  Size{Width: 1920, Height: 1080, Fit: FitCover},
			Thumb: Size{Width: 300, Height: 300, Fit: FitCover},
		},
	}
}

// LoadCatalog reads a YAML catalog file keyed by type tag.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no image types", path)
	}
	return catalog, nil
}

func (c Catalog) Lookup(typeTag string) (CatalogEntry, bool) {
	entry, ok := c[typeTag]
	if !ok {
		return CatalogEntry{}, false
	}
	if entry.FullVariant == "" {
		entry.FullVariant = typeTag + "full"
	}
	if entry.ThumbVariant == "" {
		entry.ThumbVariant = typeTag + "thumb"
	}
	return entry, true
}

// Types returns the catalog keys in stable order.
func (c Catalog) Types() []string {
	types := make([]string, 0, len(c))
	for t := range c {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (c Catalog) Validate(v *validator.Validate) error {
	if len(c) == 0 {
		return fmt.Errorf("invalid configuration: image type catalog is empty")
	}
	for _, typeTag := range c.Types() {
		entry := c[typeTag]
		if err := v.Struct(entry); err != nil {
			return fmt.Errorf("invalid catalog entry %q: %w", typeTag, err)
		}
	}
	return nil
}
