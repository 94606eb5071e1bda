package lgi_test

import (
	"fmt"
	"testing"

	"github.com/rbarraud/lgi"
	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

func TestQueryModes(t *testing.T) {
	rt, sys, widget := newBridge(t)
	rt.Types().SetTypetable(widget, &gtype.Typetable{})

	p := rt.Wrap(sys.New(widget, true), false)

	if got := rt.Query(p, lgi.QueryType); got != widget {
		t.Errorf("gtype query = %v, want %d", got, widget)
	}

	tt, ok := rt.Query(p, lgi.QueryRepo).(*gtype.Typetable)
	if !ok || tt.Name != "Widget" {
		t.Errorf("repo query = %v, want Widget's typetable", rt.Query(p, lgi.QueryRepo))
	}

	class, ok := rt.Query(p, lgi.QueryClass).(*native.Class)
	if !ok || class.Name != "Widget" {
		t.Errorf("class query = %v, want Widget's class", rt.Query(p, lgi.QueryClass))
	}

	p.Env()["k"] = "v"
	env, ok := rt.Query(p, lgi.QueryEnv).(map[string]any)
	if !ok || env["k"] != "v" {
		t.Errorf("env query = %v", rt.Query(p, lgi.QueryEnv))
	}
}

func TestQueryToleratesAnything(t *testing.T) {
	rt, sys, widget := newBridge(t)
	p := rt.Wrap(sys.New(widget, true), false)

	if rt.Query(42, lgi.QueryType) != nil {
		t.Error("non-proxy should query to nil")
	}
	if rt.Query(nil, lgi.QueryEnv) != nil {
		t.Error("nil should query to nil")
	}
	if rt.Query(p, lgi.QueryMode("bogus")) != nil {
		t.Error("unknown mode should query to nil")
	}

	// No typetable anywhere: the repo facet is absent, not an error.
	if rt.Query(p, lgi.QueryRepo) != nil {
		t.Error("repo query without a table should be nil")
	}

	// A proxy of another runtime is as opaque as any foreign value.
	rt2, sys2, widget2 := newBridge(t)
	other := rt2.Wrap(sys2.New(widget2, true), false)
	if rt.Query(other, lgi.QueryType) != nil {
		t.Error("foreign proxy should query to nil")
	}
}

func TestAccessOverride(t *testing.T) {
	rt, sys, widget := newBridge(t)

	store := map[string]any{}
	rt.Types().SetTypetable(widget, &gtype.Typetable{
		Overrides: map[string]any{
			gtype.OverrideAccess: func(rt *lgi.Runtime, p *lgi.Proxy, name string, set bool, value any) (any, error) {
				if set {
					store[name] = value
					return nil, nil
				}
				return store[name], nil
			},
		},
	})

	p := rt.Wrap(sys.New(widget, true), false)
	if _, err := rt.Access(p, "label", "ok"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := rt.Access(p, "label")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("get = %v, want ok", got)
	}
}

func TestAccessFallback(t *testing.T) {
	calls := 0
	accessor := func(rt *lgi.Runtime, p *lgi.Proxy, name string, set bool, value any) (any, error) {
		calls++
		if name == "missing" {
			return nil, fmt.Errorf("no attribute %q", name)
		}
		return name, nil
	}
	rt, sys, widget := newBridge(t, lgi.WithAccessor(accessor))

	p := rt.Wrap(sys.New(widget, true), false)
	got, err := rt.Access(p, "anything")
	if err != nil || got != "anything" {
		t.Errorf("Access = (%v, %v)", got, err)
	}
	if _, err := rt.Access(p, "missing"); err == nil {
		t.Error("accessor error should propagate")
	}
	if calls != 2 {
		t.Errorf("accessor called %d times, want 2", calls)
	}
}

func TestAccessErrors(t *testing.T) {
	rt, sys, widget := newBridge(t)
	p := rt.Wrap(sys.New(widget, true), false)

	if _, err := rt.Access(p, "x"); err == nil {
		t.Error("no accessor configured should be an error")
	}
	rt2, sys2, widget2 := newBridge(t, lgi.WithAccessor(
		func(*lgi.Runtime, *lgi.Proxy, string, bool, any) (any, error) { return nil, nil },
	))
	p2 := rt2.Wrap(sys2.New(widget2, true), false)
	if _, err := rt2.Access(p2, "x", 1, 2); err == nil {
		t.Error("more than one value should be an error")
	}
}
