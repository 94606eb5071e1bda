// Package native implements a reference-counted object system standing in
// for the foreign side of the bridge: a pointer-keyed heap of objects with
// explicit reference counts, floating references, and toggle-reference
// notifications that fire when an object's count crosses the last-reference
// boundary.
//
// The package is pure Go so the bridge and its tests run without cgo; the
// contract matches what a real native object system would expose through a
// foreign function interface.
package native

import (
	"fmt"
	"sync"

	"github.com/rbarraud/lgi/gtype"
)

// Ptr is an opaque native pointer. Zero is the null pointer.
type Ptr uintptr

// ToggleFunc is invoked when a toggled object's reference count crosses the
// last-reference boundary. isLastRef is true when exactly one reference
// (the toggle reference itself) remains, false when a second reference
// appears.
//
// The callback may run on whatever goroutine mutated the count; callers must
// establish their own execution context before touching shared state. The
// system never holds internal locks while invoking it.
type ToggleFunc func(ptr Ptr, isLastRef bool)

// ObjectTypeName is the name under which the system registers its
// object-model root in the type registry.
const ObjectTypeName = "Object"

type object struct {
	ptr      Ptr
	typ      gtype.Type
	refs     int
	floating bool
	toggle   ToggleFunc
}

// System is one native address space: a heap of reference-counted objects
// plus the type registry describing them.
type System struct {
	mu      sync.Mutex
	types   *gtype.Registry
	objects map[Ptr]*object
	classes map[gtype.Type]*Class
	next    Ptr
	root    gtype.Type
}

// Class is the per-type class structure, retrievable for any object-model
// type.
type Class struct {
	Type gtype.Type
	Name string
}

// NewSystem creates a native system backed by types. The object-model root
// type is registered under ObjectTypeName if the registry does not already
// have it.
func NewSystem(types *gtype.Registry) *System {
	root := types.Lookup(ObjectTypeName)
	if root == gtype.Invalid {
		var err error
		root, err = types.RegisterFundamental(ObjectTypeName)
		if err != nil {
			panic("native: registering object root: " + err.Error())
		}
	}
	return &System{
		types:   types,
		objects: make(map[Ptr]*object),
		classes: make(map[gtype.Type]*Class),
		next:    0x1000,
		root:    root,
	}
}

// Types returns the type registry backing this system.
func (s *System) Types() *gtype.Registry { return s.types }

// ObjectType returns the object-model root type.
func (s *System) ObjectType() gtype.Type { return s.root }

// IsObject reports whether t belongs to the standard object model, i.e.
// whether its fundamental root is the object type.
func (s *System) IsObject(t gtype.Type) bool {
	return s.types.Fundamental(t) == s.root
}

// New allocates an object of type t with one reference. Object-model
// instances start with a floating reference when floating is true; the flag
// is ignored for fundamental instances, which follow their own conventions.
func (s *System) New(t gtype.Type, floating bool) Ptr {
	if s.types.Name(t) == "" {
		panic(fmt.Sprintf("native: New with unregistered type %d", t))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ptr := s.next
	s.next += 0x10
	s.objects[ptr] = &object{
		ptr:      ptr,
		typ:      t,
		refs:     1,
		floating: floating && s.IsObject(t),
	}
	return ptr
}

// TypeOf returns the exact type of the object at ptr.
func (s *System) TypeOf(ptr Ptr) gtype.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ptr).typ
}

// Alive reports whether ptr names a live object. Unlike the other
// operations it tolerates dead and null pointers.
func (s *System) Alive(ptr Ptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ptr]
	return ok
}

// RefCount returns the current reference count of the object at ptr.
func (s *System) RefCount(ptr Ptr) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ptr).refs
}

// Floating reports whether the object at ptr still carries its floating
// reference.
func (s *System) Floating(ptr Ptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ptr).floating
}

// Ref takes one reference on the object at ptr.
func (s *System) Ref(ptr Ptr) {
	s.mu.Lock()
	o := s.get(ptr)
	o.refs++
	notify, fn := o.refs == 2 && o.toggle != nil, o.toggle
	s.mu.Unlock()
	if notify {
		fn(ptr, false)
	}
}

// RefSink takes ownership of the object at ptr: if it carries a floating
// reference the reference is converted in place, otherwise a new reference
// is taken.
func (s *System) RefSink(ptr Ptr) {
	s.mu.Lock()
	o := s.get(ptr)
	if o.floating {
		o.floating = false
		s.mu.Unlock()
		return
	}
	o.refs++
	notify, fn := o.refs == 2 && o.toggle != nil, o.toggle
	s.mu.Unlock()
	if notify {
		fn(ptr, false)
	}
}

// Unref drops one reference from the object at ptr, destroying it when the
// count reaches zero. Dropping to exactly one reference on a toggled object
// fires the last-reference notification.
func (s *System) Unref(ptr Ptr) {
	s.mu.Lock()
	o := s.get(ptr)
	o.refs--
	switch {
	case o.refs < 0:
		s.mu.Unlock()
		panic(fmt.Sprintf("native: refcount underflow at %#x", uintptr(ptr)))
	case o.refs == 0:
		delete(s.objects, ptr)
		s.mu.Unlock()
	case o.refs == 1 && o.toggle != nil:
		fn := o.toggle
		s.mu.Unlock()
		fn(ptr, true)
	default:
		s.mu.Unlock()
	}
}

// AddToggleRef installs fn as the toggle callback for the object at ptr and
// takes one reference on its behalf. Only object-model instances support
// toggle references; at most one registration exists per object.
func (s *System) AddToggleRef(ptr Ptr, fn ToggleFunc) {
	if fn == nil {
		panic("native: AddToggleRef with nil callback")
	}
	s.mu.Lock()
	o := s.get(ptr)
	if !s.IsObject(o.typ) {
		s.mu.Unlock()
		panic(fmt.Sprintf("native: AddToggleRef on non-object type %s", s.types.Name(o.typ)))
	}
	if o.toggle != nil {
		s.mu.Unlock()
		panic(fmt.Sprintf("native: duplicate toggle ref at %#x", uintptr(ptr)))
	}
	o.toggle = fn
	o.refs++
	s.mu.Unlock()
}

// RemoveToggleRef uninstalls the toggle callback and releases the reference
// it owned. No notification fires for this release.
func (s *System) RemoveToggleRef(ptr Ptr) {
	s.mu.Lock()
	o := s.get(ptr)
	if o.toggle == nil {
		s.mu.Unlock()
		panic(fmt.Sprintf("native: RemoveToggleRef without toggle ref at %#x", uintptr(ptr)))
	}
	o.toggle = nil
	o.refs--
	destroy := o.refs == 0
	if destroy {
		delete(s.objects, ptr)
	}
	s.mu.Unlock()
}

// HasToggleRef reports whether a toggle callback is installed at ptr.
func (s *System) HasToggleRef(ptr Ptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ptr).toggle != nil
}

// Class returns the class structure for t, creating it on first use. Valid
// for any registered type.
func (s *System) Class(t gtype.Type) *Class {
	name := s.types.Name(t)
	if name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.classes[t]; ok {
		return c
	}
	c := &Class{Type: t, Name: name}
	s.classes[t] = c
	return c
}

// get returns the live object at ptr or panics. Operating on a dead or null
// pointer is a programmer error, not a recoverable condition.
func (s *System) get(ptr Ptr) *object {
	o, ok := s.objects[ptr]
	if !ok {
		panic(fmt.Sprintf("native: dead or null pointer %#x", uintptr(ptr)))
	}
	return o
}
