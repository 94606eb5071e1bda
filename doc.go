// Package lgi provides an identity-preserving proxy bridge between a native
// reference-counted object system and the Go runtime.
//
// # Overview
//
// lgi keeps exactly one proxy per native object, keeps that proxy alive for
// as long as either side needs it, and never double-frees or prematurely
// drops the underlying native reference. It provides:
//
//   - A dual-cache registry: every live proxy is visible through a weak
//     cache; a strong cache pins proxies the native side still needs
//   - The toggle-reference protocol that migrates objects between the two
//     caches as their native reference count crosses the last-reference
//     boundary
//   - Ownership normalization for floating references and for fundamental
//     types with their own ref/unref conventions
//   - Automatic finalization that releases the native reference when the
//     collector drops a proxy
//
// # Quick Start
//
//	types := gtype.NewRegistry()
//	sys := native.NewSystem(types)
//	rt := lgi.New(sys)
//
//	window, _ := types.Register("Window", sys.ObjectType())
//	ptr := sys.New(window, true) // new object, floating reference
//
//	p := rt.Wrap(ptr, false) // proxy now owns the reference
//	p.Env()["title"] = "main"
//
//	// The same pointer always yields the same proxy.
//	if rt.Wrap(ptr, false) != p {
//	    panic("unreachable")
//	}
//
// # Identity and lifetime
//
// Wrapping a pointer twice returns the same *Proxy as long as the first
// proxy is still live (either reachable from Go code or pinned by the strong
// cache). While some native holder besides the proxy itself has a reference,
// the toggle-reference protocol pins the proxy so native code can hand the
// pointer back later and observe the same identity. Once the proxy holds the
// last reference, it becomes collectible; collection releases the native
// reference.
//
// Embedders that cannot wait for the collector call [Runtime.Release] for
// deterministic teardown.
//
// # Foreign call contexts
//
// Toggle notifications and finalization run on whatever goroutine mutated
// the native reference count. Both enter the runtime's [ContextGuard] before
// touching cache state, so an embedding interpreter can serialize them
// against its own execution by supplying a guard with [WithGuard].
package lgi
