package lgi

import (
	"github.com/rbarraud/lgi/native"
)

// toggleNotify is the toggle-reference callback installed for every wrapped
// object-model instance. The native system invokes it whenever the object's
// reference count crosses the last-reference boundary:
//
//   - isLastRef true: only the proxy's own reference remains; the strong
//     cache entry is dropped and the proxy becomes collectible.
//   - isLastRef false: some native holder took a second reference; the
//     proxy is pinned so the pointer can come back later with the same
//     identity even if managed code dropped it.
//
// The call may arrive from any native call path, so the runtime execution
// context is entered first and left on every exit, and the cache move is a
// single critical section.
func (rt *Runtime) toggleNotify(ptr native.Ptr, isLastRef bool) {
	leave := rt.guard.Enter()
	defer leave()
	if isLastRef {
		rt.demote(ptr)
	} else {
		rt.promote(ptr)
	}
}

// installToggle registers the toggle callback for a freshly wrapped
// object-model pointer and seeds the cache state by running the toggle
// logic once as if a second reference existed. New objects carry at least
// the toggle reference plus whatever the caller held; when the wrap already
// owned a reference, the now-redundant one is released so exactly one
// native reference stays proxy-owned. That release may immediately fire
// the real last-reference notification and demote the entry again.
func (rt *Runtime) installToggle(ptr native.Ptr, owned bool) {
	rt.sys.AddToggleRef(ptr, rt.toggleNotify)
	rt.toggleNotify(ptr, false)
	if owned {
		rt.sys.Unref(ptr)
	}
}
