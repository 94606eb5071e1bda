package gtype

// Override names recognized in a typetable's override map. The values are
// function pointers supplied by the embedding; the bridge asserts them to the
// signature it needs at dispatch time.
const (
	OverrideRefSink = "_refsink"
	OverrideUnref   = "_unref"
	OverrideAccess  = "_access"
)

// Typetable is the descriptive metadata record for one type: its display
// name, optional introspected ref/unref function pointers, per-type override
// functions, and the pinning policy for fundamental instances.
//
// RefFunc and UnrefFunc correspond to reference-counting functions discovered
// through introspection. Overrides holds the ad-hoc per-type functions
// (OverrideRefSink and friends). Both kinds are stored untyped, the way a
// foreign function pointer would be, and asserted by the caller.
type Typetable struct {
	Type      Type
	Name      string
	RefFunc   any
	UnrefFunc any
	Overrides map[string]any

	// Pin requests that proxies for this fundamental type stay reachable
	// from their creation until explicit release. Ignored for types in the
	// standard object model, whose pinning follows toggle notifications.
	Pin bool
}

// SetTypetable installs the metadata table for a type, replacing any
// previous table.
func (r *Registry) SetTypetable(t Type, tt *Typetable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tt.Type = t
	if tt.Name == "" {
		if ti, ok := r.types[t]; ok {
			tt.Name = ti.name
		}
	}
	r.tables[t] = tt
}

// Typetable returns the table registered for exactly t, or nil.
func (r *Registry) Typetable(t Type) *Typetable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[t]
}

// ResolveNearest walks t's ancestor chain and returns the first type with a
// registered typetable together with its table. Returns (Invalid, nil) when
// no ancestor is known to the repository.
func (r *Registry) ResolveNearest(t Type) (Type, *Typetable) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for t != Invalid {
		if tt, ok := r.tables[t]; ok {
			return t, tt
		}
		ti, ok := r.types[t]
		if !ok {
			return Invalid, nil
		}
		t = ti.parent
	}
	return Invalid, nil
}

// Override returns the named override function from tt, or nil. A nil table
// is allowed and yields nil.
func (r *Registry) Override(tt *Typetable, name string) any {
	if tt == nil || tt.Overrides == nil {
		return nil
	}
	return tt.Overrides[name]
}
