package lgi_test

import (
	"errors"
	"testing"

	"github.com/rbarraud/lgi"
	"github.com/rbarraud/lgi/gtype"
)

func TestToNative(t *testing.T) {
	rt, sys, widget := newBridge(t)
	ptr := sys.New(widget, true)
	p := rt.Wrap(ptr, false)

	got, err := rt.ToNative(p, widget, 1, false, false)
	if err != nil {
		t.Fatalf("ToNative failed: %v", err)
	}
	if got != ptr {
		t.Errorf("ToNative = %#x, want %#x", uintptr(got), uintptr(ptr))
	}
	if refs := sys.RefCount(ptr); refs != 1 {
		t.Errorf("borrowing conversion changed refs to %d", refs)
	}

	// Transfer hands the callee its own reference.
	if _, err := rt.ToNative(p, widget, 1, false, true); err != nil {
		t.Fatalf("ToNative transfer failed: %v", err)
	}
	if refs := sys.RefCount(ptr); refs != 2 {
		t.Errorf("transfer should add a reference, refs = %d", refs)
	}
	sys.Unref(ptr)
}

func TestToNativeOptional(t *testing.T) {
	rt, _, widget := newBridge(t)

	got, err := rt.ToNative(nil, widget, 1, true, false)
	if err != nil || got != 0 {
		t.Errorf("optional nil = (%#x, %v), want null pointer", uintptr(got), err)
	}

	if _, err := rt.ToNative(nil, widget, 1, false, false); err == nil {
		t.Error("required nil should fail")
	}
}

func TestCheckProxyAcceptsDerived(t *testing.T) {
	rt, sys, widget := newBridge(t)
	types := rt.Types()
	button, _ := types.Register("Button", widget)

	p := rt.Wrap(sys.New(button, true), false)
	if _, err := rt.CheckProxy(p, widget, 1, false); err != nil {
		t.Errorf("derived type should match ancestor: %v", err)
	}
	if _, err := rt.CheckProxy(p, gtype.Invalid, 1, false); err != nil {
		t.Errorf("Invalid want should accept any proxy: %v", err)
	}
}

func TestArgErrorMessages(t *testing.T) {
	rt, sys, widget := newBridge(t)
	types := rt.Types()
	button, _ := types.Register("Button", widget)
	boxed, _ := types.RegisterFundamental("Boxed")
	types.SetTypetable(widget, &gtype.Typetable{})

	boxedProxy := rt.Wrap(sys.New(boxed, false), false)

	cases := []struct {
		name string
		v    any
		want gtype.Type
		msg  string
	}{
		{
			"plain value",
			42, widget,
			"bad argument #1: Widget expected, got int",
		},
		{
			"wrong native type",
			boxedProxy, widget,
			"bad argument #1: Widget expected, got Boxed",
		},
		{
			"descendant of known table",
			42, button,
			"bad argument #1: Widget(Button) expected, got int",
		},
		{
			"no table anywhere",
			42, boxed,
			"bad argument #1: Boxed expected, got int",
		},
		{
			"any object wanted",
			"x", gtype.Invalid,
			"bad argument #1: lgi.object expected, got string",
		},
	}
	for _, c := range cases {
		_, err := rt.CheckProxy(c.v, c.want, 1, false)
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if err.Error() != c.msg {
			t.Errorf("%s:\n got  %q\n want %q", c.name, err.Error(), c.msg)
		}
		var argErr *lgi.ArgError
		if !errors.As(err, &argErr) || argErr.Arg != 1 {
			t.Errorf("%s: error should be an *ArgError for argument 1", c.name)
		}
	}
}

func TestArgErrorPosition(t *testing.T) {
	rt, _, widget := newBridge(t)
	_, err := rt.CheckProxy(nil, widget, 3, false)
	if err == nil {
		t.Fatal("expected error")
	}
	var argErr *lgi.ArgError
	if !errors.As(err, &argErr) || argErr.Arg != 3 {
		t.Errorf("Arg = %v, want 3", err)
	}
}

func TestCheckProxyForeignRuntime(t *testing.T) {
	rt, _, widget := newBridge(t)
	rt2, sys2, widget2 := newBridge(t)

	p := rt2.Wrap(sys2.New(widget2, true), false)
	if _, err := rt.CheckProxy(p, widget, 1, false); err == nil {
		t.Error("proxy of another runtime should be rejected")
	}
}
