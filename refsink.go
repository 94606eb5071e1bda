package lgi

import (
	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

// RefFunc is the signature expected of introspected ref/unref function
// pointers and of "_refsink"/"_unref" typetable overrides.
type RefFunc func(ptr native.Ptr)

// refStrategy is one tier of the polymorphic ref/unref dispatch. Each tier
// reports whether it handled the object; the chain stops at the first that
// does.
type refStrategy interface {
	refSink(rt *Runtime, ptr native.Ptr, t gtype.Type) bool
	unref(rt *Runtime, ptr native.Ptr, t gtype.Type, removeProxy bool) bool
}

// refChain is the fixed dispatch order: the canonical object model first,
// then introspected function pointers, then per-type overrides.
var refChain = []refStrategy{
	objectModelStrategy{},
	introspectedStrategy{},
	overrideStrategy{},
}

// refSink normalizes a floating or ambiguous reference at ptr into a
// proxy-owned reference. Reports success; failure leaves the object
// unmanaged and is logged, never raised.
func (rt *Runtime) refSink(ptr native.Ptr) bool {
	t := rt.sys.TypeOf(ptr)
	for _, s := range refChain {
		if s.refSink(rt, ptr, t) {
			return true
		}
	}
	rt.log.Warn().Str("type", rt.typeName(t)).Msg("no way to ref type")
	return false
}

// unref releases one proxy-owned reference at ptr. With removeProxy set and
// a standard object-model type, the toggle registration is uninstalled
// instead, which performs the final release as part of its contract. When
// every tier fails no reference is released; the leak is logged.
func (rt *Runtime) unref(ptr native.Ptr, removeProxy bool) {
	t := rt.sys.TypeOf(ptr)
	for _, s := range refChain {
		if s.unref(rt, ptr, t, removeProxy) {
			return
		}
	}
	rt.log.Warn().Str("type", rt.typeName(t)).Msg("no way to unref type")
}

// objectModelStrategy covers types rooted in the standard object model,
// which always support the canonical ref-and-sink and unref operations.
type objectModelStrategy struct{}

func (objectModelStrategy) refSink(rt *Runtime, ptr native.Ptr, t gtype.Type) bool {
	if !rt.sys.IsObject(t) {
		return false
	}
	rt.sys.RefSink(ptr)
	return true
}

func (objectModelStrategy) unref(rt *Runtime, ptr native.Ptr, t gtype.Type, removeProxy bool) bool {
	if !rt.sys.IsObject(t) {
		return false
	}
	if removeProxy {
		rt.sys.RemoveToggleRef(ptr)
	} else {
		rt.sys.Unref(ptr)
	}
	return true
}

// introspectedStrategy consults the typetable of the exact type, falling
// back to the table of its fundamental root, for registered ref/unref
// function pointers.
type introspectedStrategy struct{}

func (introspectedStrategy) refSink(rt *Runtime, ptr native.Ptr, t gtype.Type) bool {
	fn, ok := introspectedFunc(rt, t, func(tt *gtype.Typetable) any { return tt.RefFunc })
	if !ok {
		return false
	}
	fn(ptr)
	return true
}

func (introspectedStrategy) unref(rt *Runtime, ptr native.Ptr, t gtype.Type, _ bool) bool {
	fn, ok := introspectedFunc(rt, t, func(tt *gtype.Typetable) any { return tt.UnrefFunc })
	if !ok {
		return false
	}
	fn(ptr)
	return true
}

func introspectedFunc(rt *Runtime, t gtype.Type, pick func(*gtype.Typetable) any) (RefFunc, bool) {
	tt := rt.types.Typetable(t)
	if tt == nil || pick(tt) == nil {
		tt = rt.types.Typetable(rt.types.Fundamental(t))
	}
	if tt == nil {
		return nil, false
	}
	return asRefFunc(pick(tt))
}

// overrideStrategy resolves the nearest known typetable up the ancestor
// chain and uses its "_refsink"/"_unref" override functions.
type overrideStrategy struct{}

func (overrideStrategy) refSink(rt *Runtime, ptr native.Ptr, t gtype.Type) bool {
	fn, ok := overrideFunc(rt, t, gtype.OverrideRefSink)
	if !ok {
		return false
	}
	fn(ptr)
	return true
}

func (overrideStrategy) unref(rt *Runtime, ptr native.Ptr, t gtype.Type, _ bool) bool {
	fn, ok := overrideFunc(rt, t, gtype.OverrideUnref)
	if !ok {
		return false
	}
	fn(ptr)
	return true
}

func overrideFunc(rt *Runtime, t gtype.Type, name string) (RefFunc, bool) {
	_, tt := rt.types.ResolveNearest(t)
	if tt == nil {
		return nil, false
	}
	return asRefFunc(rt.types.Override(tt, name))
}

// asRefFunc asserts an untyped function pointer from the repository to the
// signature the dispatch needs.
func asRefFunc(v any) (RefFunc, bool) {
	switch fn := v.(type) {
	case RefFunc:
		return fn, true
	case func(native.Ptr):
		return fn, true
	default:
		return nil, false
	}
}
