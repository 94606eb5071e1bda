package lgi

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

// ContextGuard serializes entry into the managed runtime from foreign call
// contexts. Enter acquires the context and returns the function releasing
// it; callers must release on every exit path:
//
//	leave := guard.Enter()
//	defer leave()
//
// Implementations must be reentrant-safe: a toggle notification can fire
// while the runtime is already inside its own execution context.
type ContextGuard interface {
	Enter() (leave func())
}

// nopGuard is the default guard for embeddings without an execution context
// of their own. Cache state stays consistent regardless; the registry mutex
// covers that.
type nopGuard struct{}

func (nopGuard) Enter() func() { return func() {} }

// AccessFunc handles attribute access on a proxy, either through a
// typetable's "_access" override or through the marshaler configured with
// [WithAccessor]. set is true when value carries a new attribute value.
type AccessFunc func(rt *Runtime, p *Proxy, name string, set bool, value any) (any, error)

// Runtime is one managed-runtime instance bridging one native system. It
// owns the dual-cache proxy registry; create it with [New].
//
// All cache state is private to the instance, so isolated runtimes can
// coexist in a single process.
type Runtime struct {
	sys   *native.System
	types *gtype.Registry
	guard ContextGuard
	log   zerolog.Logger

	accessor AccessFunc

	mu     sync.Mutex
	weak   map[native.Ptr]weakEntry
	strong map[native.Ptr]*Proxy
	gen    uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger receiving reference-counting diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Runtime) { rt.log = l }
}

// WithGuard sets the execution-context guard entered by toggle
// notifications and finalization.
func WithGuard(g ContextGuard) Option {
	return func(rt *Runtime) { rt.guard = g }
}

// WithAccessor sets the fallback attribute-access handler consulted when a
// type declares no "_access" override.
func WithAccessor(fn AccessFunc) Option {
	return func(rt *Runtime) { rt.accessor = fn }
}

// New creates a runtime bridging sys. The caches start empty; nothing is
// persisted across process runs.
func New(sys *native.System, opts ...Option) *Runtime {
	rt := &Runtime{
		sys:    sys,
		types:  sys.Types(),
		guard:  nopGuard{},
		log:    defaultLogger(),
		weak:   make(map[native.Ptr]weakEntry),
		strong: make(map[native.Ptr]*Proxy),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// System returns the native system this runtime bridges.
func (rt *Runtime) System() *native.System { return rt.sys }

// Types returns the type registry shared with the native system.
func (rt *Runtime) Types() *gtype.Registry { return rt.types }

// typeName names t for diagnostics, tolerating unregistered identifiers.
func (rt *Runtime) typeName(t gtype.Type) string {
	if name := rt.types.Name(t); name != "" {
		return name
	}
	return "<unknown>"
}
