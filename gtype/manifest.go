package gtype

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Manifest describes a type hierarchy in TOML form. Used by tools and
// fixtures to populate a Registry without writing registration code:
//
//	[[type]]
//	name = "Object"
//	fundamental = true
//
//	[[type]]
//	name = "Widget"
//	parent = "Object"
//
//	[[type]]
//	name = "ParamSpec"
//	fundamental = true
//	pin = true
type Manifest struct {
	Types []ManifestType `toml:"type"`
}

// ManifestType is one type declaration in a Manifest.
type ManifestType struct {
	Name        string `toml:"name"`
	Parent      string `toml:"parent"`
	Fundamental bool   `toml:"fundamental"`
	Pin         bool   `toml:"pin"`
}

// LoadManifest reads a TOML manifest from path and registers every declared
// type into r, in declaration order. Parents must be declared before their
// children. Types carrying a pin policy get a typetable recording it.
func LoadManifest(path string, r *Registry) error {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return fmt.Errorf("gtype: reading manifest %s: %w", path, err)
	}
	return m.Apply(r)
}

// ParseManifest registers types from TOML data held in memory.
func ParseManifest(data string, r *Registry) error {
	var m Manifest
	if _, err := toml.Decode(data, &m); err != nil {
		return fmt.Errorf("gtype: parsing manifest: %w", err)
	}
	return m.Apply(r)
}

// Apply registers every type in the manifest into r.
func (m *Manifest) Apply(r *Registry) error {
	for _, mt := range m.Types {
		var (
			t   Type
			err error
		)
		switch {
		case mt.Fundamental && mt.Parent != "":
			return fmt.Errorf("gtype: type %q is fundamental but declares parent %q", mt.Name, mt.Parent)
		case mt.Fundamental:
			t, err = r.RegisterFundamental(mt.Name)
		default:
			parent := r.Lookup(mt.Parent)
			if parent == Invalid {
				return fmt.Errorf("gtype: type %q: parent %q not declared", mt.Name, mt.Parent)
			}
			t, err = r.Register(mt.Name, parent)
		}
		if err != nil {
			return err
		}
		if mt.Pin {
			r.SetTypetable(t, &Typetable{Pin: true})
		}
	}
	return nil
}
