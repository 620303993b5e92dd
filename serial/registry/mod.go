// Package registry implements the class registry: the runtime description of
// the types that participate in serialization.
//
// A class is declared with Define and a Constructor, then its members,
// embedded bases and hooks are appended with the builder methods of Class.
// Member descriptors are built by the typed helpers of this package (Field,
// Static, Accessor, FieldCreator, ContainerCreator, Custom, Container) so
// that the closures they capture stay type-safe.
//
// Registration errors are sticky to the registry: the first one is retained
// and exposed by Err, every one is reported through the optional handler or
// the logger. A registry with a sticky error keeps serving lookups.
//
// Documentation Last Review: 13.05.2024
package registry

import (
	"reflect"

	"github.com/objson/objson"
	"github.com/objson/objson/serial"
	"github.com/rs/zerolog"
)

// Registry maps class names and runtime types to class descriptors. The
// writer resolves classes by runtime type, the reader by the name found in
// the document, hence the two indices.
type Registry struct {
	byName  map[string]*Class
	byType  map[reflect.Type]*Class
	handler serial.Handler
	err     *serial.Error
	logger  zerolog.Logger
}

// Option is a function to set an optional setting of the registry.
type Option func(*Registry)

// WithHandler sets the callback invoked for every registration error.
func WithHandler(h serial.Handler) Option {
	return func(r *Registry) {
		r.handler = h
	}
}

// NewRegistry returns a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]*Class),
		byType: make(map[reflect.Type]*Class),
		logger: objson.Logger.With().Str("component", "registry").Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Constructor carries the runtime type of a class and its construction
// thunk. It is built by New, Ctor or Abstract.
type Constructor struct {
	typ    reflect.Type
	create func() interface{}
}

// New returns a constructor that allocates T with its zero value.
func New[T any]() Constructor {
	return Constructor{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		create: func() interface{} {
			return new(T)
		},
	}
}

// Ctor returns a constructor using the given creation function. It is meant
// for classes whose zero value is not usable.
func Ctor[T any](fn func() *T) Constructor {
	return Constructor{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		create: func() interface{} {
			p := fn()
			if p == nil {
				return nil
			}

			return p
		},
	}
}

// Abstract returns a constructor for a class that cannot be instantiated
// from a document. Reading a new object of this class through a pointer
// fails with AbstractClass unless a creator is attached to the member; a
// value that already exists (a struct passed to Read, an embedded base
// portion) is populated in place.
func Abstract[T any]() Constructor {
	return Constructor{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Define registers a class under the given name and returns its builder. A
// name already taken is reported as a RedefinedClass error and the returned
// class is detached: its builder works but it is not looked up.
func (r *Registry) Define(name string, ctor Constructor) *Class {
	cl := &Class{
		reg:    r,
		name:   name,
		typ:    ctor.typ,
		create: ctor.create,
		byName: make(map[string]*Member),
	}

	if _, found := r.byName[name]; found {
		r.fail(serial.RedefinedClass, "defclass()", name)
		return cl
	}

	r.byName[name] = cl
	r.byType[ctor.typ] = cl

	return cl
}

// ByName returns the class registered under the name, or nil.
func (r *Registry) ByName(name string) *Class {
	return r.byName[name]
}

// ByType returns the class registered for the runtime type, or nil.
func (r *Registry) ByType(t reflect.Type) *Class {
	return r.byType[t]
}

// ByValue returns the class of the value, resolving through pointers, or
// nil when the type is not registered.
func (r *Registry) ByValue(v interface{}) *Class {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil {
		return nil
	}

	return r.byType[t]
}

// Err returns the first registration error, or nil. The error stays until
// the registry is discarded.
func (r *Registry) Err() error {
	if r.err == nil {
		return nil
	}

	return r.err
}

func (r *Registry) fail(code serial.Code, where, arg string) {
	e := &serial.Error{
		Code:  code,
		Where: where,
		Arg:   arg,
		Fatal: true,
	}

	if r.handler != nil {
		r.handler(e)
	} else {
		r.logger.Error().Err(e).Msg("registration failed")
	}

	if r.err == nil {
		r.err = e
	}
}
