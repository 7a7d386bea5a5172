package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefinitionsFile is read from the definitions dir.
const DefinitionsFile = "nlu.yaml"

var ErrMissingPath = errors.New("config: ontology and database paths are required")

// Patterns overrides the recognizer word lists; empty lists keep the defaults.
type Patterns struct {
	Bye      []string `yaml:"bye"`
	Thanks   []string `yaml:"thanks"`
	DontLike []string `yaml:"dontlike"`
	Watched  []string `yaml:"watched"`
	Deny     []string `yaml:"deny"`
	Affirm   []string `yaml:"affirm"`
	DontCare []string `yaml:"dontcare"`
}

type Linker struct {
	TitleColumn string   `yaml:"title_column"`
	GenreColumn string   `yaml:"genre_column"`
	Templates   []string `yaml:"templates"`
}

type Config struct {
	Ontology    string   `yaml:"ontology"`
	Database    string   `yaml:"database"`
	MultiValued []string `yaml:"multi_valued"`
	Patterns    Patterns `yaml:"patterns"`
	Linker      Linker   `yaml:"linker"`
}

// LoadFromDir reads base/nlu.yaml. Relative paths inside it resolve against
// base.
func LoadFromDir(base string) (*Config, error) {
	path := filepath.Join(base, DefinitionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Ontology == "" || cfg.Database == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingPath)
	}
	cfg.Ontology = resolve(base, cfg.Ontology)
	cfg.Database = resolve(base, cfg.Database)
	return &cfg, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
