// Package types provides core types and configurations for bandproj
package types

import (
	"fmt"
)

// EnergyWindow is a pair of energy bounds selecting bands for a projector group.
// Bounds are absolute energies in the same units as the band eigenvalues (eV).
type EnergyWindow struct {
	EMin float64 `json:"emin"`
	EMax float64 `json:"emax"`
}

// Valid reports whether the window bounds are ordered.
func (w EnergyWindow) Valid() bool {
	return w.EMin <= w.EMax
}

func (w EnergyWindow) String() string {
	return fmt.Sprintf("[%g, %g]", w.EMin, w.EMax)
}

// ShellConfig describes one projector shell: a set of equivalent atomic
// sites sharing orbital character, each carrying NOrb localized orbitals.
type ShellConfig struct {
	Name  string `json:"name,omitempty"`
	Sites []int  `json:"sites"`
	NOrb  int    `json:"norb"`
}

// NSites returns the number of sites in the shell.
func (s ShellConfig) NSites() int {
	return len(s.Sites)
}

// GroupConfig describes a projector group: an energy window, the shells
// participating in the group and the orthogonalization mode.
//
// Normalize enables orthogonalization of the group's projectors.
// NormIon selects per-site orthogonalization; when false all sites of all
// participating shells are orthogonalized jointly.
type GroupConfig struct {
	Name      string       `json:"name,omitempty"`
	Window    EnergyWindow `json:"ewindow"`
	Shells    []int        `json:"shells"`
	Normalize bool         `json:"normalize"`
	NormIon   bool         `json:"normion"`
}

// Config is the top-level bandproj configuration.
type Config struct {
	Version  string        `json:"version"`
	DataFile string        `json:"dataFile"`
	Shells   []ShellConfig `json:"shells"`
	Groups   []GroupConfig `json:"groups"`
}

// ConfigVersion is the only supported configuration schema version.
const ConfigVersion = "1.0"

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Section string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Message)
}

// Validate checks the configuration for structural consistency.
func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return &ConfigError{Section: "config", Field: "version",
			Message: fmt.Sprintf("unsupported config version: %q", c.Version)}
	}

	if len(c.Shells) == 0 {
		return &ConfigError{Section: "config", Field: "shells", Message: "no shells defined"}
	}
	for i, sh := range c.Shells {
		section := fmt.Sprintf("shells[%d]", i)
		if sh.NOrb < 1 {
			return &ConfigError{Section: section, Field: "norb",
				Message: fmt.Sprintf("orbital count must be positive, got %d", sh.NOrb)}
		}
		if len(sh.Sites) == 0 {
			return &ConfigError{Section: section, Field: "sites", Message: "shell has no sites"}
		}
		for _, site := range sh.Sites {
			if site < 0 {
				return &ConfigError{Section: section, Field: "sites",
					Message: fmt.Sprintf("negative site index %d", site)}
			}
		}
	}

	if len(c.Groups) == 0 {
		return &ConfigError{Section: "config", Field: "groups", Message: "no groups defined"}
	}
	names := make(map[string]bool)
	for i, gr := range c.Groups {
		section := fmt.Sprintf("groups[%d]", i)
		if gr.Name != "" {
			if names[gr.Name] {
				return &ConfigError{Section: section, Field: "name",
					Message: fmt.Sprintf("duplicate group name: %s", gr.Name)}
			}
			names[gr.Name] = true
		}
		if !gr.Window.Valid() {
			return &ConfigError{Section: section, Field: "ewindow",
				Message: fmt.Sprintf("emin %g exceeds emax %g", gr.Window.EMin, gr.Window.EMax)}
		}
		if len(gr.Shells) == 0 {
			return &ConfigError{Section: section, Field: "shells", Message: "group has no shells"}
		}
		for _, ish := range gr.Shells {
			if ish < 0 || ish >= len(c.Shells) {
				return &ConfigError{Section: section, Field: "shells",
					Message: fmt.Sprintf("shell index %d out of range (%d shells defined)", ish, len(c.Shells))}
			}
		}
	}

	return nil
}

// GroupName returns a stable display name for a group, falling back to its
// position when the config does not name it.
func (c *Config) GroupName(i int) string {
	if c.Groups[i].Name != "" {
		return c.Groups[i].Name
	}
	return fmt.Sprintf("group-%d", i)
}
