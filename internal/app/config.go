package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/tagforge/internal/instr"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TemplatePath string // page, unit or taglib file; a directory with Check
	VarsPath     string // .hcl, .json, .yaml or .yml render variables
	Locals       map[string]string

	AutoImports []string // "ref", "ref=alias" or "module:name"
	TaglibPaths []string
	Autoescape  bool
	Atomic      bool

	Emit    bool
	Check   bool
	Workers int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TemplatePath == "" {
		return nil, errors.New("TemplatePath is a required configuration field and cannot be empty")
	}
	if cfg.Emit && cfg.Check {
		return nil, errors.New("emit and check cannot be used together")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if _, err := cfg.Imports(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Imports parses AutoImports.
func (c *Config) Imports() ([]instr.Import, error) {
	imps := make([]instr.Import, 0, len(c.AutoImports))
	for _, s := range c.AutoImports {
		imp, err := ParseImport(s)
		if err != nil {
			return nil, err
		}
		imps = append(imps, imp)
	}
	return imps, nil
}

// ParseImport parses an automatic import: "ref", "ref=alias" or
// "module:name".
func ParseImport(s string) (instr.Import, error) {
	if name, ok := strings.CutPrefix(s, "module:"); ok {
		if name == "" {
			return instr.Import{}, fmt.Errorf("invalid import %q: empty module name", s)
		}
		return instr.Import{Module: name}, nil
	}
	ref, as, _ := strings.Cut(s, "=")
	if ref == "" {
		return instr.Import{}, fmt.Errorf("invalid import %q: empty taglib reference", s)
	}
	return instr.Import{Ref: ref, As: as}, nil
}
