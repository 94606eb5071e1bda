package lgi

import (
	"fmt"
	"runtime"
	"weak"

	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

// Proxy is the managed-side identity of one native object. At most one
// Proxy exists per live native pointer; all conversions of that pointer
// yield the same instance (see [Runtime.Wrap]).
//
// A Proxy owns exactly one native reference on behalf of the managed side.
// When the collector drops the proxy, or [Runtime.Release] retires it, that
// reference is released.
type Proxy struct {
	rt  *Runtime
	ptr native.Ptr
	gen uint64
	env map[string]any

	cleanup runtime.Cleanup
}

// Pointer returns the wrapped native pointer.
func (p *Proxy) Pointer() native.Ptr { return p.ptr }

// Type returns the exact native type of the wrapped object. Valid while the
// proxy is live.
func (p *Proxy) Type() gtype.Type { return p.rt.sys.TypeOf(p.ptr) }

// Env returns the proxy-local side table. The table belongs to this proxy
// alone and follows its lifetime.
func (p *Proxy) Env() map[string]any { return p.env }

// String formats the proxy like "lgi.obj 0x1000:Button(Button)", naming the
// nearest repository type and the exact native type.
func (p *Proxy) String() string {
	if !p.rt.sys.Alive(p.ptr) {
		return fmt.Sprintf("lgi.obj %#x:<dead>", uintptr(p.ptr))
	}
	t := p.rt.sys.TypeOf(p.ptr)
	name := "<???>"
	if _, tt := p.rt.types.ResolveNearest(t); tt != nil {
		name = tt.Name
	}
	return fmt.Sprintf("lgi.obj %#x:%s(%s)", uintptr(p.ptr), name, p.rt.typeName(t))
}

// weakEntry is one weak-cache slot. The generation counter ties a queued
// cleanup to the proxy it was registered for, so a cleanup for a dead proxy
// cannot evict a newer proxy wrapped at the same pointer.
type weakEntry struct {
	ref weak.Pointer[Proxy]
	gen uint64
}

// assertPtr guards the registry against null keys; a null entry means the
// registry is corrupt, not that a caller made a recoverable mistake.
func assertPtr(ptr native.Ptr) {
	if ptr == 0 {
		panic("lgi: null pointer in proxy registry")
	}
}

// lookupProxy returns the live proxy cached for ptr, or nil. Lookup never
// creates entries.
func (rt *Runtime) lookupProxy(ptr native.Ptr) *Proxy {
	assertPtr(ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if e, ok := rt.weak[ptr]; ok {
		return e.ref.Value()
	}
	return nil
}

// adopt inserts p into the weak cache unless a live proxy for the same
// pointer got there first, in which case the existing proxy wins. Returns
// the canonical proxy and whether p was inserted.
func (rt *Runtime) adopt(p *Proxy) (*Proxy, bool) {
	assertPtr(p.ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if e, ok := rt.weak[p.ptr]; ok {
		if q := e.ref.Value(); q != nil {
			return q, false
		}
	}
	rt.gen++
	p.gen = rt.gen
	rt.weak[p.ptr] = weakEntry{ref: weak.Make(p), gen: p.gen}
	return p, true
}

// promote copies the weak-cache proxy for ptr into the strong cache,
// pinning it against collection. No-op when the proxy is already gone.
func (rt *Runtime) promote(ptr native.Ptr) {
	assertPtr(ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if e, ok := rt.weak[ptr]; ok {
		if p := e.ref.Value(); p != nil {
			rt.strong[ptr] = p
		}
	}
}

// demote drops the strong-cache entry for ptr; the proxy stays visible
// through the weak cache and becomes collectible.
func (rt *Runtime) demote(ptr native.Ptr) {
	assertPtr(ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.strong, ptr)
}

// removeEntry clears both cache entries for ptr if the weak entry still
// belongs to generation gen. Reports whether the entry was removed.
func (rt *Runtime) removeEntry(ptr native.Ptr, gen uint64) bool {
	assertPtr(ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	e, ok := rt.weak[ptr]
	if !ok || e.gen != gen {
		return false
	}
	delete(rt.weak, ptr)
	delete(rt.strong, ptr)
	return true
}

// Cached reports the registry state for ptr: whether a live weak entry
// exists and whether the pointer is pinned in the strong cache.
func (rt *Runtime) Cached(ptr native.Ptr) (inWeak, inStrong bool) {
	assertPtr(ptr)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if e, ok := rt.weak[ptr]; ok {
		inWeak = e.ref.Value() != nil
	}
	_, inStrong = rt.strong[ptr]
	return inWeak, inStrong
}

// cleanupKey carries the finalization parameters for a proxy without
// referencing the proxy itself.
type cleanupKey struct {
	ptr native.Ptr
	gen uint64
}

// finalize is the managed-side finalization hook: it retires the cache
// entries for ptr and releases the proxy-owned native reference. It runs
// from cleanup contexts and must never panic or raise; a pointer whose
// object already died is logged and skipped.
func (rt *Runtime) finalize(ptr native.Ptr, gen uint64) {
	leave := rt.guard.Enter()
	defer leave()
	if !rt.removeEntry(ptr, gen) {
		return
	}
	if !rt.sys.Alive(ptr) {
		rt.log.Warn().
			Str("ptr", fmt.Sprintf("%#x", uintptr(ptr))).
			Msg("native object died before proxy release")
		return
	}
	rt.unref(ptr, true)
}

// Release retires p deterministically: both cache entries are removed, the
// pending cleanup is cancelled, and the proxy-owned native reference is
// released exactly as collector-driven finalization would. Releasing a
// proxy twice, or a proxy from another runtime, is a no-op.
func (rt *Runtime) Release(p *Proxy) {
	if p == nil || p.rt != rt {
		return
	}
	p.cleanup.Stop()
	rt.finalize(p.ptr, p.gen)
}
