// This file contains the write side of the engine: a recursive emitter
// dispatching on value kind. Under sharing, objects are written once and
// referenced as "@N" afterwards; polymorphic values carry a @class marker.
// The output is strict JSON whatever dialect the engine accepts on read.

package engine

import (
	"reflect"
	"strconv"

	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/registry"
	"golang.org/x/xerrors"
)

// WriteValue implements serial.Encoder. It emits the value with the
// protocol matching its kind.
func (e *Engine) WriteValue(v interface{}) error {
	if v == nil {
		return e.writeLiteral("null")
	}

	return e.writeValue(reflect.ValueOf(v), false)
}

// WriteDynamic implements serial.Encoder. It emits the value as an object of
// its runtime class, tagged with @class. Interface-typed members go through
// this entry since their static class is unknown.
func (e *Engine) WriteDynamic(v interface{}) error {
	if v == nil {
		return e.writeLiteral("null")
	}

	return e.writeValue(reflect.ValueOf(v), true)
}

// WriteMember implements serial.Encoder. It emits the pending member name
// and then the value. Custom member writers call it for each member they
// decide to emit.
func (e *Engine) WriteMember(v interface{}) error {
	if e.needComma {
		err := e.writeRaw(",\n")
		if err != nil {
			return err
		}
	}

	e.needComma = false

	err := e.writeTabs()
	if err != nil {
		return err
	}

	err = e.writeRaw("\"" + e.pending + "\": ")
	if err != nil {
		return err
	}

	return e.WriteValue(v)
}

func (e *Engine) writeValue(rv reflect.Value, dynamic bool) error {
	if !rv.IsValid() {
		return e.writeLiteral("null")
	}

	if rv.CanInterface() {
		if src, ok := rv.Interface().(serial.Source); ok {
			return e.writeFromSource(src)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return e.writeLiteral("true")
		}
		return e.writeLiteral("false")

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.writeLiteral(strconv.FormatInt(rv.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.writeLiteral(strconv.FormatUint(rv.Uint(), 10))

	case reflect.Float32:
		return e.writeLiteral(strconv.FormatFloat(rv.Float(), 'g', -1, 32))

	case reflect.Float64:
		return e.writeLiteral(strconv.FormatFloat(rv.Float(), 'g', -1, 64))

	case reflect.String:
		return e.writeString(rv.String())

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return e.writeLiteral("null")
			}
			return e.writeString(string(rv.Bytes()))
		}

		return e.writeArray(rv)

	case reflect.Array:
		return e.writeArray(rv)

	case reflect.Map:
		return e.writeMap(rv)

	case reflect.Interface:
		if rv.IsNil() {
			return e.writeLiteral("null")
		}

		return e.writeValue(rv.Elem(), true)

	case reflect.Ptr:
		if rv.IsNil() {
			return e.writeLiteral("null")
		}

		elem := rv.Elem()

		if elem.Kind() == reflect.Struct {
			cl := e.reg.ByType(elem.Type())
			if cl == nil {
				return e.fail(serial.UnknownClass, elem.Type().String())
			}

			return e.writeObject(cl, dynamic, rv.Pointer(), rv.Interface())
		}

		return e.writeValue(elem, dynamic)

	case reflect.Struct:
		cl := e.reg.ByType(rv.Type())
		if cl == nil {
			return e.fail(serial.UnknownClass, rv.Type().String())
		}

		if rv.CanAddr() && rv.Addr().CanInterface() {
			return e.writeObject(cl, dynamic, rv.Addr().Pointer(), rv.Addr().Interface())
		}

		// A struct arriving by value has no stable address: box it so the
		// object protocol has an identity to work with. Copies are never
		// deduplicated, each sighting gets a fresh id.
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)

		return e.writeObject(cl, dynamic, p.Pointer(), p.Interface())

	default:
		return xerrors.Errorf("unsupported value type '%v'", rv.Type())
	}
}

// writeObject emits one object: the sharing preamble, the @class marker for
// polymorphic values, the @id marker under sharing, then the members,
// superclasses first.
func (e *Engine) writeObject(cl *registry.Class, dynamic bool, identity uintptr, obj interface{}) error {
	if e.sharing {
		id, seen := e.objToID[identity]
		if seen {
			err := e.writeRaw("\"@" + strconv.FormatUint(id, 10) + "\"")
			e.needComma = true

			return err
		}

		e.nextID++
		e.objToID[identity] = e.nextID
	}

	id := e.nextID

	e.needComma = false

	err := e.writeRaw("{\n")
	if err != nil {
		return err
	}

	e.level++

	if dynamic {
		err = e.writeTabs()
		if err == nil {
			err = e.writeRaw("\"@class\": \"" + cl.Name() + "\",\n")
		}
		if err != nil {
			return err
		}
	}

	if e.sharing {
		err = e.writeTabs()
		if err == nil {
			err = e.writeRaw("\"@id\": \"" + strconv.FormatUint(id, 10) + "\",\n")
		}
		if err != nil {
			return err
		}
	}

	err = e.writeMembers(cl, obj)
	if err != nil {
		return err
	}

	e.level--

	err = e.writeRaw("\n")
	if err == nil {
		err = e.writeTabs()
	}
	if err == nil {
		err = e.writeRaw("}")
	}
	if err != nil {
		return err
	}

	e.needComma = true

	cl.DoPostWrite(obj)

	return nil
}

// writeMembers emits the members of the object: inherited members first, in
// the declared order of the superclasses, then own members. The order is
// part of the wire contract.
func (e *Engine) writeMembers(cl *registry.Class, obj interface{}) error {
	for _, s := range cl.Supers() {
		err := e.writeMembers(s.Class, s.Upcast(obj))
		if err != nil {
			return err
		}
	}

	for _, m := range cl.Members() {
		if m.Custom() {
			// The custom writer emits its own name, and the comma before it,
			// through WriteMember.
			e.pending = m.Name()
		} else {
			if e.needComma {
				err := e.writeRaw(",\n")
				if err != nil {
					return err
				}
			}

			e.needComma = false

			err := e.writeTabs()
			if err == nil {
				err = e.writeRaw("\"" + m.Name() + "\": ")
			}
			if err != nil {
				return err
			}
		}

		err := m.Write(e, obj)
		if err != nil {
			return err
		}
	}

	return nil
}

// writeArray emits a container with the array protocol. An empty container
// is emitted as "[]" on a single line.
func (e *Engine) writeArray(rv reflect.Value) error {
	n := rv.Len()
	if n == 0 {
		return e.writeLiteral("[]")
	}

	e.needComma = false

	err := e.writeRaw("[\n")
	if err != nil {
		return err
	}

	e.level++

	for i := 0; i < n; i++ {
		if e.needComma {
			err = e.writeRaw(",\n")
			if err != nil {
				return err
			}
		}

		err = e.writeTabs()
		if err != nil {
			return err
		}

		e.needComma = false

		err = e.writeValue(rv.Index(i), false)
		if err != nil {
			return err
		}
	}

	e.level--

	err = e.writeRaw("\n")
	if err == nil {
		err = e.writeTabs()
	}
	if err == nil {
		err = e.writeRaw("]")
	}

	e.needComma = true

	return err
}

// writeFromSource emits a foreign container through its adapter.
func (e *Engine) writeFromSource(src serial.Source) error {
	if src.Len() == 0 {
		return e.writeLiteral("[]")
	}

	e.needComma = false

	err := e.writeRaw("[\n")
	if err != nil {
		return err
	}

	e.level++

	err = src.EachElement(func(elem interface{}) error {
		if e.needComma {
			err := e.writeRaw(",\n")
			if err != nil {
				return err
			}
		}

		err := e.writeTabs()
		if err != nil {
			return err
		}

		e.needComma = false

		return e.WriteValue(elem)
	})
	if err != nil {
		return err
	}

	e.level--

	err = e.writeRaw("\n")
	if err == nil {
		err = e.writeTabs()
	}
	if err == nil {
		err = e.writeRaw("]")
	}

	e.needComma = true

	return err
}

// writeMap emits a string-keyed map with the map protocol: keys become
// member names, in traversal order. Under sharing maps participate in
// identity like objects do.
func (e *Engine) writeMap(rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return xerrors.Errorf("unsupported map key type '%v'", rv.Type().Key())
	}

	if e.sharing && !rv.IsNil() {
		id, seen := e.objToID[rv.Pointer()]
		if seen {
			err := e.writeRaw("\"@" + strconv.FormatUint(id, 10) + "\"")
			e.needComma = true

			return err
		}

		e.nextID++
		e.objToID[rv.Pointer()] = e.nextID
	}

	id := e.nextID

	e.needComma = false

	err := e.writeRaw("{\n")
	if err != nil {
		return err
	}

	e.level++

	if e.sharing && !rv.IsNil() {
		err = e.writeTabs()
		if err == nil {
			err = e.writeRaw("\"@id\": \"" + strconv.FormatUint(id, 10) + "\",\n")
		}
		if err != nil {
			return err
		}
	}

	iter := rv.MapRange()
	for iter.Next() {
		if e.needComma {
			err = e.writeRaw(",\n")
			if err != nil {
				return err
			}
		}

		e.needComma = false

		err = e.writeTabs()
		if err == nil {
			err = e.writeString(iter.Key().String())
		}
		if err == nil {
			e.needComma = false
			err = e.writeRaw(": ")
		}
		if err != nil {
			return err
		}

		err = e.writeValue(iter.Value(), false)
		if err != nil {
			return err
		}
	}

	e.level--

	err = e.writeRaw("\n")
	if err == nil {
		err = e.writeTabs()
	}
	if err == nil {
		err = e.writeRaw("}")
	}

	e.needComma = true

	return err
}

// writeString emits a quoted, escaped string.
func (e *Engine) writeString(s string) error {
	err := e.out.WriteByte('"')
	if err != nil {
		return err
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '"':
			_, err = e.out.WriteString("\\\"")
		case '\\':
			_, err = e.out.WriteString("\\\\")
		case '\b':
			_, err = e.out.WriteString("\\b")
		case '\f':
			_, err = e.out.WriteString("\\f")
		case '\n':
			_, err = e.out.WriteString("\\n")
		case '\r':
			_, err = e.out.WriteString("\\r")
		case '\t':
			_, err = e.out.WriteString("\\t")
		default:
			err = e.out.WriteByte(c)
		}

		if err != nil {
			return err
		}
	}

	err = e.out.WriteByte('"')

	e.needComma = true

	return err
}

func (e *Engine) writeLiteral(s string) error {
	err := e.writeRaw(s)
	e.needComma = true

	return err
}

func (e *Engine) writeRaw(s string) error {
	_, err := e.out.WriteString(s)
	return err
}

func (e *Engine) writeTabs() error {
	for i := 0; i < e.level*e.indent; i++ {
		err := e.out.WriteByte(e.tabChar)
		if err != nil {
			return err
		}
	}

	return nil
}
