// Package config handles quill.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/quillvm/quill/gc"
)

// Runtime represents a quill.toml runtime configuration. Every field is
// optional; absent values take the memory manager's defaults. The resulting
// gc.Options are fixed at context creation — there is no reload path.
type Runtime struct {
	Heap      Heap      `toml:"heap"`
	Collector Collector `toml:"collector"`
	Arena     Arena     `toml:"arena"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-"`
}

// Heap configures page geometry.
type Heap struct {
	PageSize int `toml:"page_size"`
	MaxPages int `toml:"max_pages"`
}

// Collector configures cycle pacing.
type Collector struct {
	IntervalRatio int   `toml:"interval_ratio"`
	StepRatio     int   `toml:"step_ratio"`
	MajorIncRatio int   `toml:"major_inc_ratio"`
	Generational  *bool `toml:"generational"`
}

// Arena configures root-protection preallocation.
type Arena struct {
	InitialCapacity int `toml:"initial_capacity"`
}

// Load parses a quill.toml file from the given directory.
func Load(dir string) (*Runtime, error) {
	return LoadFile(filepath.Join(dir, "quill.toml"))
}

// LoadFile parses the named TOML file.
func LoadFile(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var r Runtime
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	r.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return &r, nil
}

// FindAndLoad walks up from startDir to find a quill.toml file, then loads
// and returns it. Returns nil if no configuration file is found.
func FindAndLoad(startDir string) (*Runtime, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "quill.toml")
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Options converts the configuration into memory-manager options.
// Unset numeric fields stay zero and take gc defaults; generational mode
// defaults to on when the key is absent.
func (r *Runtime) Options() gc.Options {
	generational := true
	if r.Collector.Generational != nil {
		generational = *r.Collector.Generational
	}
	return gc.Options{
		PageSize:             r.Heap.PageSize,
		MaxPages:             r.Heap.MaxPages,
		IntervalRatio:        r.Collector.IntervalRatio,
		StepRatio:            r.Collector.StepRatio,
		MajorIncRatio:        r.Collector.MajorIncRatio,
		Generational:         generational,
		ArenaInitialCapacity: r.Arena.InitialCapacity,
	}
}
