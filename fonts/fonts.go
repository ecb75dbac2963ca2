// Package fonts resolves the font families named in markup to
// concrete faces. The standard viewer-provided families are always
// available; TrueType and OpenType files can be registered on top for
// embedding and real-metric measurement.
package fonts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Registry holds the registered faces for a document. The zero value
// is unusable; call NewRegistry.
type Registry struct {
	faces map[faceKey]*Face
}

type faceKey struct {
	family string
	bold   bool
}

func key(family string, bold bool) faceKey {
	return faceKey{family: strings.ToLower(strings.TrimSpace(family)), bold: bold}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{faces: make(map[faceKey]*Face)}
}

// Register adds a face for the family. Registering with bold set adds
// the bold variant and leaves the regular one untouched. Family
// matching is case-insensitive.
func (r *Registry) Register(family string, bold bool, face *Face) {
	r.faces[key(family, bold)] = face
}

// Face returns the registered face for the family, falling back to
// the regular variant when no bold one exists. It returns nil when
// the family resolves to a viewer-provided base font instead.
func (r *Registry) Face(family string, bold bool) *Face {
	if r == nil {
		return nil
	}
	if f, ok := r.faces[key(family, bold)]; ok {
		return f
	}
	if bold {
		if f, ok := r.faces[key(family, false)]; ok {
			return f
		}
	}
	return nil
}

// Len reports the number of registered faces.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.faces)
}

// BaseName maps a family and weight onto one of the base font names
// every viewer provides. Unknown families fall back to Helvetica so a
// typo still renders.
func BaseName(family string, bold bool) string {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "times", "times-roman", "times new roman", "serif":
		if bold {
			return "Times-Bold"
		}
		return "Times-Roman"
	case "courier", "mono", "monospace":
		if bold {
			return "Courier-Bold"
		}
		return "Courier"
	case "symbol":
		return "Symbol"
	case "zapfdingbats":
		return "ZapfDingbats"
	default:
		if bold {
			return "Helvetica-Bold"
		}
		return "Helvetica"
	}
}

// Config is the on-disk font declaration format:
//
//	[[font]]
//	family = "Inter"
//	path   = "Inter-Regular.ttf"
//
//	[[font]]
//	family = "Inter"
//	path   = "Inter-Bold.ttf"
//	bold   = true
type Config struct {
	Fonts []Decl `toml:"font"`
}

// Decl declares one font file.
type Decl struct {
	Family string `toml:"family"`
	Path   string `toml:"path"`
	Bold   bool   `toml:"bold"`
}

// LoadConfig reads a TOML font declaration file and registers every
// face it names. Relative paths resolve against the config file's
// directory.
func LoadConfig(path string) (*Registry, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("read font config %s: %w", path, err)
	}
	reg := NewRegistry()
	base := filepath.Dir(path)
	for _, decl := range cfg.Fonts {
		if decl.Family == "" || decl.Path == "" {
			return nil, fmt.Errorf("font config %s: every font needs a family and a path", path)
		}
		fontPath := decl.Path
		if !filepath.IsAbs(fontPath) {
			fontPath = filepath.Join(base, fontPath)
		}
		face, err := LoadFace(decl.Family, fontPath)
		if err != nil {
			return nil, err
		}
		reg.Register(decl.Family, decl.Bold, face)
	}
	return reg, nil
}
