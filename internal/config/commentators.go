package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"FeedNotifier/internal/domain"
)

//go:embed commentators.yaml
var defaultCommentators []byte

type catalogFile struct {
	Commentators []domain.Commentator `yaml:"commentators"`
}

// LoadCatalog reads the commentator catalog from path, or the embedded
// default when path is empty.
func LoadCatalog(path string) (domain.Catalog, error) {
	raw := defaultCommentators
	source := "embedded catalog"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read commentators: %w", err)
		}
		raw, source = data, path
	}

	catalog, err := ParseCatalog(raw)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %w", source, err)
	}
	return catalog, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(raw []byte) (domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse commentators: %w", err)
	}
	if len(file.Commentators) == 0 {
		return domain.Catalog{}, errors.New("commentator catalog is empty")
	}
	for i, c := range file.Commentators {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Field) == "" {
			return domain.Catalog{}, fmt.Errorf("commentator %d: name and field are required", i+1)
		}
	}
	return domain.NewCatalog(file.Commentators), nil
}
