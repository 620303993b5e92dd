// Package contain adapts foreign container shapes to the array protocol of
// the engine: sets and doubly linked lists. Slices, fixed-size arrays and
// string-keyed maps are handled natively by the engine and need no adapter.
//
// An adapter implements serial.Adapter and is wired to a class member with
// registry.Container:
//
//	cl.Member("tags", registry.Container(func(c *Contact) serial.Adapter {
//		return contain.Set(&c.Tags)
//	}))
//
// Sets serialize in whatever traversal order they expose: round-trip
// equality on sets holds modulo reordering.
package contain

import (
	"container/list"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/objson/objson/serial"
)

// setAdapter adapts a mapset set.
//
// - implements serial.Adapter
type setAdapter[E comparable] struct {
	set     *mapset.Set[E]
	cleared bool
}

// Set returns an adapter reading into and writing from the set. A nil set is
// allocated on first insertion.
func Set[E comparable](s *mapset.Set[E]) serial.Adapter {
	return &setAdapter[E]{set: s}
}

// Add implements serial.Sink. It decodes the element and inserts it. The set
// is cleared on the first insertion of the read, not before: the same
// adapter value also serves writing.
func (a *setAdapter[E]) Add(dec serial.Decoder, create func() interface{}, token string) error {
	if !a.cleared {
		if *a.set == nil {
			*a.set = mapset.NewThreadUnsafeSet[E]()
		} else {
			(*a.set).Clear()
		}

		a.cleared = true
	}

	var elem E

	var err error
	if create != nil {
		err = dec.ReadPointee(&elem, create, token)
	} else {
		err = dec.ReadValue(&elem, token)
	}

	if err != nil {
		return err
	}

	(*a.set).Add(elem)

	return nil
}

// End implements serial.Sink. An empty array still resets the set.
func (a *setAdapter[E]) End(serial.Decoder) error {
	if !a.cleared {
		if *a.set == nil {
			*a.set = mapset.NewThreadUnsafeSet[E]()
		} else {
			(*a.set).Clear()
		}
	}

	return nil
}

// Len implements serial.Source.
func (a *setAdapter[E]) Len() int {
	if *a.set == nil {
		return 0
	}

	return (*a.set).Cardinality()
}

// EachElement implements serial.Source.
func (a *setAdapter[E]) EachElement(fn func(interface{}) error) error {
	if *a.set == nil {
		return nil
	}

	var err error

	(*a.set).Each(func(elem E) bool {
		err = fn(elem)
		return err != nil
	})

	return err
}

// listAdapter adapts a container/list list whose elements are of type E.
//
// - implements serial.Adapter
type listAdapter[E any] struct {
	list    *list.List
	cleared bool
}

// List returns an adapter reading into and writing from the list, decoding
// every element as an E.
func List[E any](l *list.List) serial.Adapter {
	return &listAdapter[E]{list: l}
}

// Add implements serial.Sink.
func (a *listAdapter[E]) Add(dec serial.Decoder, create func() interface{}, token string) error {
	if !a.cleared {
		a.list.Init()
		a.cleared = true
	}

	var elem E

	var err error
	if create != nil {
		err = dec.ReadPointee(&elem, create, token)
	} else {
		err = dec.ReadValue(&elem, token)
	}

	if err != nil {
		return err
	}

	a.list.PushBack(elem)

	return nil
}

// End implements serial.Sink.
func (a *listAdapter[E]) End(serial.Decoder) error {
	if !a.cleared {
		a.list.Init()
	}

	return nil
}

// Len implements serial.Source.
func (a *listAdapter[E]) Len() int {
	return a.list.Len()
}

// EachElement implements serial.Source.
func (a *listAdapter[E]) EachElement(fn func(interface{}) error) error {
	for el := a.list.Front(); el != nil; el = el.Next() {
		err := fn(el.Value)
		if err != nil {
			return err
		}
	}

	return nil
}
