package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"advisor-match-workers/internal/models"
)

// Fixture is a self-contained matching scenario.
type Fixture struct {
	Students []models.Student `json:"students" yaml:"students"`
	Advisors []models.Advisor `json:"advisors" yaml:"advisors"`
}

// loadFixture reads a YAML or JSON fixture, chosen by file extension.
func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var f Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported fixture extension %q, want .yaml, .yml or .json", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	seen := make(map[string]bool, len(f.Students))
	for i, s := range f.Students {
		if s.ID == "" {
			return fmt.Errorf("students[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("students[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}

	seen = make(map[string]bool, len(f.Advisors))
	for i, a := range f.Advisors {
		switch {
		case a.ID == "":
			return fmt.Errorf("advisors[%d]: id is required", i)
		case seen[a.ID]:
			return fmt.Errorf("advisors[%d]: duplicate id %q", i, a.ID)
		case a.MaxCapacity < 0 || a.CurrentLoad < 0:
			return fmt.Errorf("advisors[%d]: capacity and load must not be negative", i)
		}
		seen[a.ID] = true
	}
	return nil
}
