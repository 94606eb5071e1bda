package gtype_test

import (
	"path/filepath"
	"testing"

	"github.com/rbarraud/lgi/gtype"
)

func TestLoadManifest(t *testing.T) {
	r := gtype.NewRegistry()
	if err := gtype.LoadManifest(filepath.Join("testdata", "types.toml"), r); err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	object := r.Lookup("Object")
	button := r.Lookup("Button")
	if !object.IsValid() || !button.IsValid() {
		t.Fatal("manifest types not registered")
	}
	if !r.IsA(button, object) {
		t.Error("Button should derive from Object")
	}

	spec := r.Lookup("ParamSpec")
	tt := r.Typetable(spec)
	if tt == nil || !tt.Pin {
		t.Errorf("ParamSpec should carry a pinning typetable, got %+v", tt)
	}
	if r.Typetable(object) != nil {
		t.Error("Object should have no typetable")
	}
}

func TestParseManifest(t *testing.T) {
	r := gtype.NewRegistry()
	err := gtype.ParseManifest(`
[[type]]
name = "Value"
fundamental = true
`, r)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if !r.Lookup("Value").IsValid() {
		t.Error("Value not registered")
	}
}

func TestManifestErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"undeclared parent", `
[[type]]
name = "Widget"
parent = "Object"
`},
		{"fundamental with parent", `
[[type]]
name = "Bad"
parent = "Object"
fundamental = true
`},
		{"missing parent field", `
[[type]]
name = "Widget"
`},
		{"bad toml", `[[type`},
	}
	for _, c := range cases {
		r := gtype.NewRegistry()
		if err := gtype.ParseManifest(c.data, r); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	r := gtype.NewRegistry()
	if err := gtype.LoadManifest(filepath.Join("testdata", "nope.toml"), r); err == nil {
		t.Error("expected error for missing file")
	}
}
