package lgi

import (
	"fmt"

	"github.com/rbarraud/lgi/gtype"
)

// QueryMode selects which facet of a proxy [Runtime.Query] reports.
type QueryMode string

const (
	QueryType  QueryMode = "gtype" // exact native type identifier
	QueryRepo  QueryMode = "repo"  // nearest repository typetable
	QueryClass QueryMode = "class" // native class structure
	QueryEnv   QueryMode = "env"   // proxy-local side table
)

// Query inspects v without converting it. Anything that is not a proxy of
// this runtime yields nil rather than an error, so callers can probe values
// of unknown provenance. Unknown modes yield nil as well.
func (rt *Runtime) Query(v any, mode QueryMode) any {
	p, ok := v.(*Proxy)
	if !ok || p.rt != rt {
		return nil
	}
	t := rt.sys.TypeOf(p.ptr)
	switch mode {
	case QueryType:
		return t
	case QueryRepo:
		_, tt := rt.types.ResolveNearest(t)
		if tt == nil {
			return nil
		}
		return tt
	case QueryClass:
		return rt.sys.Class(t)
	case QueryEnv:
		return p.env
	}
	return nil
}

// Access reads or writes the named attribute of p. Types route attribute
// traffic through an "_access" override in their typetable; without one the
// runtime-wide accessor from [WithAccessor] handles the call. Passing a
// value makes this a write.
func (rt *Runtime) Access(p *Proxy, name string, value ...any) (any, error) {
	if len(value) > 1 {
		return nil, fmt.Errorf("access %q: at most one value", name)
	}
	fn := rt.accessor
	if _, tt := rt.types.ResolveNearest(p.Type()); tt != nil {
		if override, ok := asAccessFunc(rt.types.Override(tt, gtype.OverrideAccess)); ok {
			fn = override
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("%s: no accessor for attribute %q", p, name)
	}
	if len(value) == 1 {
		return fn(rt, p, name, true, value[0])
	}
	return fn(rt, p, name, false, nil)
}

func asAccessFunc(v any) (AccessFunc, bool) {
	switch fn := v.(type) {
	case AccessFunc:
		return fn, true
	case func(*Runtime, *Proxy, string, bool, any) (any, error):
		return fn, true
	default:
		return nil, false
	}
}
