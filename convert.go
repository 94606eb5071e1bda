package lgi

import (
	"fmt"
	"runtime"

	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

// Wrap converts a native pointer into its managed proxy, creating one if the
// pointer is not cached. owned reports whether the caller transfers a native
// reference with the pointer; Wrap normalizes ownership so the proxy ends up
// owning exactly one reference either way. A nil pointer wraps to nil.
func (rt *Runtime) Wrap(ptr native.Ptr, owned bool) *Proxy {
	if ptr == 0 {
		return nil
	}
	if p := rt.lookupProxy(ptr); p != nil {
		if owned {
			rt.unref(ptr, false)
		}
		return p
	}

	p := &Proxy{rt: rt, ptr: ptr, env: make(map[string]any)}
	p, inserted := rt.adopt(p)
	if !inserted {
		// Lost the insertion race; fold into the winner like a cache hit.
		if owned {
			rt.unref(ptr, false)
		}
		return p
	}
	p.cleanup = runtime.AddCleanup(p, func(k cleanupKey) {
		rt.finalize(k.ptr, k.gen)
	}, cleanupKey{ptr: ptr, gen: p.gen})

	if !owned && rt.refSink(ptr) {
		owned = true
	}

	t := rt.sys.TypeOf(ptr)
	if rt.sys.IsObject(t) {
		rt.installToggle(ptr, owned)
	} else if _, tt := rt.types.ResolveNearest(t); tt != nil && tt.Pin {
		rt.promote(ptr)
	}
	return p
}

// ToNative converts v back to a native pointer for a callee expecting type
// want. v may be a *Proxy of this runtime or nil; nil converts to the null
// pointer when optional is set. transfer adds a reference the callee will
// own. arg is the 1-based argument position reported on mismatch.
func (rt *Runtime) ToNative(v any, want gtype.Type, arg int, optional, transfer bool) (native.Ptr, error) {
	p, err := rt.CheckProxy(v, want, arg, optional)
	if err != nil || p == nil {
		return 0, err
	}
	if transfer {
		rt.sys.Ref(p.ptr)
	}
	return p.ptr, nil
}

// CheckProxy validates that v is a proxy of this runtime whose native type
// is want or derives from it. want may be [gtype.Invalid] to accept any
// proxy. nil passes only when optional is set.
func (rt *Runtime) CheckProxy(v any, want gtype.Type, arg int, optional bool) (*Proxy, error) {
	if v == nil {
		if optional {
			return nil, nil
		}
		return nil, rt.argError(v, want, arg)
	}
	p, ok := v.(*Proxy)
	if !ok || p.rt != rt {
		return nil, rt.argError(v, want, arg)
	}
	if want.IsValid() && !rt.types.IsA(rt.sys.TypeOf(p.ptr), want) {
		return nil, rt.argError(v, want, arg)
	}
	return p, nil
}

// argError builds the mismatch error for argument arg. The expected side
// names the nearest repository type when one is known; the actual side names
// the native type for proxies of this runtime and the Go type otherwise.
func (rt *Runtime) argError(v any, want gtype.Type, arg int) error {
	expected := "lgi.object"
	if want.IsValid() {
		if nearest, tt := rt.types.ResolveNearest(want); tt != nil {
			if nearest == want {
				expected = tt.Name
			} else {
				expected = fmt.Sprintf("%s(%s)", tt.Name, rt.typeName(want))
			}
		} else {
			expected = rt.typeName(want)
		}
	}
	actual := fmt.Sprintf("%T", v)
	if p, ok := v.(*Proxy); ok && p.rt == rt {
		actual = rt.typeName(rt.sys.TypeOf(p.ptr))
	}
	return &ArgError{Arg: arg, Expected: expected, Actual: actual}
}
