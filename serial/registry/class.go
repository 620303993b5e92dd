// This file contains the class descriptor and its builder methods.

package registry

import (
	"fmt"
	"reflect"

	"github.com/objson/objson/serial"
)

// Super is one entry of the superclass list of a class: the base descriptor
// and the function mapping a pointer to the derived object to a pointer to
// the base portion.
type Super struct {
	Class  *Class
	Upcast func(obj interface{}) interface{}
}

// BaseRef identifies a base class for Extends. It is built by Base, which
// captures both the base type and the upcast onto the embedded portion.
type BaseRef struct {
	typ    reflect.Type
	upcast func(obj interface{}) interface{}
}

// Base returns a reference to the base class S of C. The upcast function
// returns the address of the embedded base portion, e.g.
//
//	registry.Base(func(c *PhotoContact) *Photo { return &c.Photo })
//
// Embedding guarantees statically that S is a base portion of C.
func Base[C any, S any](upcast func(*C) *S) BaseRef {
	return BaseRef{
		typ: reflect.TypeOf((*S)(nil)).Elem(),
		upcast: func(obj interface{}) interface{} {
			return upcast(obj.(*C))
		},
	}
}

// Hook adapts a typed hook function to the post-read/post-write signature.
func Hook[T any](fn func(*T)) func(interface{}) {
	return func(obj interface{}) {
		fn(obj.(*T))
	}
}

// Class describes one registered class: its name, runtime type, ordered
// members, superclass entries, construction thunk and hooks.
type Class struct {
	reg       *Registry
	name      string
	typ       reflect.Type
	create    func() interface{}
	members   []*Member
	byName    map[string]*Member
	supers    []Super
	postRead  func(interface{})
	postWrite func(interface{})
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Type returns the runtime type the class describes.
func (c *Class) Type() reflect.Type {
	return c.typ
}

// CanCreate tells whether the class carries a construction thunk.
func (c *Class) CanCreate() bool {
	return c.create != nil
}

// New invokes the construction thunk. It returns nil when the class is
// abstract or when the thunk itself returned nil.
func (c *Class) New() interface{} {
	if c.create == nil {
		return nil
	}

	return c.create()
}

// Extends appends a superclass entry. The base must already be registered
// and must not appear twice; the effective member sets of the class and of
// the base must not collide. Order of Extends calls is preserved: it governs
// the member walk when reading and the emission order when writing.
func (c *Class) Extends(base BaseRef) *Class {
	super := c.reg.ByType(base.typ)
	if super == nil {
		c.reg.fail(serial.UnknownSuperclass, "extends()",
			fmt.Sprintf("superclass %v of class '%s'", base.typ, c.name))
		return c
	}

	for _, s := range c.supers {
		if s.Class == super {
			c.reg.fail(serial.RedefinedSuperclass, "extends()",
				fmt.Sprintf("superclass '%s' of class '%s'", super.name, c.name))
			return c
		}
	}

	for todo := []*Class{super}; len(todo) > 0; todo = todo[1:] {
		for _, s := range todo[0].supers {
			todo = append(todo, s.Class)
		}

		for _, m := range todo[0].members {
			if c.effective(m.name) != nil {
				c.reg.fail(serial.RedefinedMember, "extends()",
					fmt.Sprintf("member '%s' of class '%s'", m.name, c.name))
				return c
			}
		}
	}

	c.supers = append(c.supers, Super{Class: super, Upcast: base.upcast})

	return c
}

// Member appends a member descriptor under the given name. The name must be
// unique within the effective member set of the class, own and inherited.
func (c *Class) Member(name string, def MemberDef) *Class {
	if c.effective(name) != nil {
		c.reg.fail(serial.RedefinedMember, "member()",
			fmt.Sprintf("member '%s' of class '%s'", name, c.name))
		return c
	}

	m := &Member{
		name:   name,
		custom: def.custom,
		read:   def.read,
		write:  def.write,
	}

	c.members = append(c.members, m)
	c.byName[name] = m

	return c
}

// PostRead installs the hook invoked after an object of this class has been
// fully read.
func (c *Class) PostRead(fn func(interface{})) *Class {
	c.postRead = fn
	return c
}

// PostWrite installs the hook invoked after an object of this class has been
// fully written.
func (c *Class) PostWrite(fn func(interface{})) *Class {
	c.postWrite = fn
	return c
}

// Members returns the own members in declaration order. The slice must not
// be modified.
func (c *Class) Members() []*Member {
	return c.members
}

// Supers returns the superclass entries in declaration order. The slice must
// not be modified.
func (c *Class) Supers() []Super {
	return c.supers
}

// Resolve walks the effective member set for the name: own members first,
// then each superclass in declared order through its upcast, first match
// wins. It returns the member and the object the member applies to.
func (c *Class) Resolve(obj interface{}, name string) (*Member, interface{}, bool) {
	if m, found := c.byName[name]; found {
		return m, obj, true
	}

	for _, s := range c.supers {
		m, o, found := s.Class.Resolve(s.Upcast(obj), name)
		if found {
			return m, o, true
		}
	}

	return nil, nil, false
}

// DoPostRead invokes the post-read hook, if any.
func (c *Class) DoPostRead(obj interface{}) {
	if obj != nil && c.postRead != nil {
		c.postRead(obj)
	}
}

// DoPostWrite invokes the post-write hook, if any.
func (c *Class) DoPostWrite(obj interface{}) {
	if obj != nil && c.postWrite != nil {
		c.postWrite(obj)
	}
}

// effective looks the name up in the own and inherited member sets.
func (c *Class) effective(name string) *Member {
	if m, found := c.byName[name]; found {
		return m
	}

	for _, s := range c.supers {
		if m := s.Class.effective(name); m != nil {
			return m
		}
	}

	return nil
}
