// This file contains the read side of the engine: a recursive-descent
// consumer of token pairs that dispatches on the target type, reconstructing
// polymorphism through @class markers and shared-object identity through
// @id/@N markers.

package engine

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/registry"
	"golang.org/x/xerrors"
)

// errBadScalar marks a scalar parse failure. It is converted into an
// InvalidValue report, annotated with the member being read, at the
// interface boundaries of the decoder.
var errBadScalar = xerrors.New("malformed scalar")

// ReadValue implements serial.Decoder. It parses the token into the value
// pointed to by target.
func (e *Engine) ReadValue(target interface{}, token string) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return xerrors.Errorf("target must be a non-nil pointer, got %T", target)
	}

	return e.convertScalarErr(e.readValue(rv.Elem(), token), token)
}

// ReadPointee implements serial.Decoder. It reads into a pointer or
// interface target, allocating the pointee with create when it is provided.
func (e *Engine) ReadPointee(target interface{}, create func() interface{}, token string) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return xerrors.Errorf("target must be a non-nil pointer, got %T", target)
	}

	v := rv.Elem()
	if v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface {
		return xerrors.Errorf("target must point to a pointer or interface, got %T", target)
	}

	_, err := e.readPointee(v, create, token)

	return e.convertScalarErr(err, token)
}

// ReadContainer implements serial.Decoder. The target is either a
// serial.Sink adapter, or a pointer to a slice or array.
func (e *Engine) ReadContainer(target interface{}, create func() interface{}, token string) error {
	if s, ok := target.(serial.Sink); ok {
		return e.convertScalarErr(e.readArray(s, create, token), token)
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return xerrors.Errorf("container target must be a non-nil pointer, got %T", target)
	}

	v := rv.Elem()

	var sink serial.Sink

	switch v.Kind() {
	case reflect.Slice:
		sink = newSliceSink(e, v)
	case reflect.Array:
		sink = &arraySink{e: e, v: v}
	default:
		return xerrors.Errorf("unsupported container type '%v'", v.Type())
	}

	return e.convertScalarErr(e.readArray(sink, create, token), token)
}

// convertScalarErr turns the scalar-parse sentinel into an InvalidValue
// report carrying the offending token and, when one is being read, the
// member name.
func (e *Engine) convertScalarErr(err error, token string) error {
	if err == nil || !xerrors.Is(err, errBadScalar) {
		return err
	}

	arg := token
	if e.memberName != "" {
		arg = token + " for member '" + e.memberName + "'"
	}

	return e.fail(serial.InvalidValue, arg)
}

// readValue parses the token into the settable value v.
func (e *Engine) readValue(v reflect.Value, token string) error {
	if v.CanAddr() {
		if s, ok := v.Addr().Interface().(serial.Sink); ok {
			return e.readArray(s, nil, token)
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		switch token {
		case "true":
			v.SetBool(true)
		case "false":
			v.SetBool(false)
		default:
			return e.fail(serial.InvalidValue, token+" should be a boolean")
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil || v.OverflowInt(n) {
			return xerrors.Errorf("'%s': %w", token, errBadScalar)
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(token, 10, 64)
		if err != nil || v.OverflowUint(n) {
			return xerrors.Errorf("'%s': %w", token, errBadScalar)
		}
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return xerrors.Errorf("'%s': %w", token, errBadScalar)
		}
		v.SetFloat(f)

	case reflect.String:
		v.SetString(token)

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if token == "null" {
				v.SetBytes(nil)
			} else {
				v.SetBytes([]byte(token))
			}
			return nil
		}

		return e.readArray(newSliceSink(e, v), nil, token)

	case reflect.Array:
		return e.readArray(&arraySink{e: e, v: v}, nil, token)

	case reflect.Map:
		return e.readMap(v, token)

	case reflect.Ptr:
		_, err := e.readPointee(v, nil, token)
		return err

	case reflect.Interface:
		if v.Type().NumMethod() == 0 {
			return e.readAnyInto(v, token)
		}

		_, err := e.readPointee(v, nil, token)
		return err

	case reflect.Struct:
		cl := e.reg.ByType(v.Type())
		if cl == nil {
			return e.fail(serial.UnknownClass, v.Type().String())
		}

		_, _, err := e.readObject(cl, cl, nil, v, token)
		return err

	default:
		return xerrors.Errorf("unsupported target type '%v'", v.Type())
	}

	return nil
}

// readPointee reads the pointee of a pointer or interface value. The literal
// null binds the target to its zero value. It returns the identity slot of
// the pointee when one was recorded, so that sequence adapters can fix it up
// after a reallocation.
func (e *Engine) readPointee(v reflect.Value, create func() interface{}, token string) (*slot, error) {
	v.Set(reflect.Zero(v.Type()))

	if token == "null" {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr {
		elem := v.Type().Elem()

		cl := e.reg.ByType(elem)
		if cl == nil || elem.Kind() != reflect.Struct {
			// Not an object: allocate and parse the pointee in place.
			p := reflect.New(elem)

			err := e.readValue(p.Elem(), token)
			if err != nil {
				return nil, err
			}

			v.Set(p)

			return nil, nil
		}

		obj, sl, err := e.readObject(nil, cl, create, reflect.Value{}, token)
		if err != nil {
			return nil, err
		}

		return sl, e.bind(v, obj, token)
	}

	// Interface target: the class can only come from the document.
	obj, sl, err := e.readObject(nil, nil, create, reflect.Value{}, token)
	if err != nil {
		return nil, err
	}

	return sl, e.bind(v, obj, token)
}

// bind assigns the object to the target, checking runtime assignability: a
// shared reference may resolve to an object of an incompatible class.
func (e *Engine) bind(v reflect.Value, obj interface{}, token string) error {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || !rv.Type().AssignableTo(v.Type()) {
		return e.fail(serial.InvalidValue,
			token+" is not assignable to '"+v.Type().String()+"'")
	}

	v.Set(rv)

	return nil
}

// readObject reads one object. objClass is the pinned class when the caller
// already knows it, hint the class of the pointer used when the document
// carries no @class, create an optional creator overriding the class
// constructor, and target the existing value to populate when the object is
// not materialized by the engine.
func (e *Engine) readObject(objClass, hint *registry.Class, create func() interface{},
	target reflect.Value, token string) (interface{}, *slot, error) {

	if token == "" {
		return nil, nil, e.fail(serial.ExpectingBrace, "")
	}

	if token[0] == '@' {
		id, err := strconv.ParseUint(token[1:], 10, 64)
		if err != nil {
			return nil, nil, e.fail(serial.InvalidID, token)
		}

		sl, found := e.slots[id]
		if !found {
			return nil, nil, e.fail(serial.InvalidID, token)
		}

		return sl.obj, sl, nil
	}

	if token != "{" {
		return nil, nil, e.fail(serial.ExpectingBrace, token)
	}

	var obj interface{}
	if target.IsValid() {
		obj = target.Addr().Interface()
	}

	var sl *slot

	for !e.eof {
		name, value, found1, found2, err := e.readLine(true)
		if err != nil {
			return nil, nil, err
		}

		if !found1 || (!found2 && name != "}") {
			return nil, nil, e.fail(serial.ExpectingPairOrBrace, "")
		}

		if name != "" && name[0] == '@' && name != "@class" && name != "@id" {
			return nil, nil, e.fail(serial.WrongKeyword, name)
		}

		if objClass == nil {
			if name == "@class" {
				objClass = e.reg.ByName(value)
				if objClass == nil {
					return nil, nil, e.fail(serial.UnknownClass, value)
				}
			} else {
				objClass = hint
				if objClass == nil {
					return nil, nil, e.fail(serial.UnknownClass, "(no @class tag)")
				}
			}

			if obj == nil {
				if create == nil && !objClass.CanCreate() {
					return nil, nil, e.fail(serial.AbstractClass, objClass.Name())
				}

				if create != nil {
					obj = create()
				} else {
					obj = objClass.New()
				}

				if isNilObject(obj) {
					return nil, nil, e.fail(serial.CantCreateObject, objClass.Name())
				}
			}

			if name == "@class" {
				continue
			}
		} else if name == "@class" && e.reg.ByName(value) == nil {
			return nil, nil, e.fail(serial.UnknownClass, value)
		}

		if name == "}" {
			objClass.DoPostRead(obj)
			return obj, sl, nil
		}

		if name == "@id" {
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, nil, e.fail(serial.InvalidID, value)
			}

			sl = &slot{obj: obj}
			e.slots[id] = sl

			continue
		}

		m, owner, found := objClass.Resolve(obj, name)
		if !found {
			e.warn(serial.UnknownMember, "'"+name+"' in class '"+objClass.Name()+"'")

			// The value is skipped whole: a nested structure is consumed
			// until its matching close.
			_, err = e.readAny(value)
			if err != nil {
				return nil, nil, err
			}

			continue
		}

		prev := e.memberName
		e.memberName = name

		err = m.Read(e, owner, value)

		e.memberName = prev

		if xerrors.Is(err, errBadScalar) {
			return nil, nil, e.fail(serial.InvalidValue, value+" for member '"+name+"'")
		}

		if err != nil {
			return nil, nil, err
		}
	}

	return nil, nil, e.fail(serial.PrematureEOF, "")
}

func isNilObject(obj interface{}) bool {
	if obj == nil {
		return true
	}

	rv := reflect.ValueOf(obj)

	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// readArray reads a JSON array through the sink: one Add per element token,
// End on the closing bracket.
func (e *Engine) readArray(sink serial.Sink, create func() interface{}, token string) error {
	if token != "[" {
		return e.fail(serial.ExpectingBracket, token)
	}

	for !e.eof {
		tok, _, found, _, err := e.readLine(false)
		if err != nil {
			return err
		}

		if !found {
			return e.fail(serial.ExpectingValueOrBracket, "")
		}

		if tok == "]" {
			return sink.End(e)
		}

		err = sink.Add(e, create, tok)
		if err != nil {
			return err
		}
	}

	return e.fail(serial.PrematureEOF, "")
}

// readArrayValue reads one container or map element. It returns the identity
// slot recorded for the element, if any.
func (e *Engine) readArrayValue(v reflect.Value, create func() interface{}, token string) (*slot, error) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.Kind() == reflect.Interface && v.Type().NumMethod() == 0 {
			return nil, e.readAnyInto(v, token)
		}

		return e.readPointee(v, create, token)

	case reflect.Struct:
		cl := e.reg.ByType(v.Type())
		if cl == nil {
			return nil, e.fail(serial.UnknownClass, v.Type().String())
		}

		_, sl, err := e.readObject(cl, cl, nil, v, token)

		return sl, err

	default:
		return nil, e.readValue(v, token)
	}
}

// readMap reads a JSON object into a map keyed by strings. Each key becomes
// an entry; an existing entry with the same key is overwritten.
func (e *Engine) readMap(v reflect.Value, token string) error {
	if v.Type().Key().Kind() != reflect.String {
		return xerrors.Errorf("unsupported map key type '%v'", v.Type().Key())
	}

	if token == "" {
		return e.fail(serial.ExpectingBrace, "")
	}

	if token[0] == '@' {
		id, err := strconv.ParseUint(token[1:], 10, 64)
		if err != nil {
			return e.fail(serial.InvalidID, token)
		}

		sl, found := e.slots[id]
		if !found {
			return e.fail(serial.InvalidID, token)
		}

		return e.bind(v, sl.obj, token)
	}

	if token != "{" {
		return e.fail(serial.ExpectingBrace, token)
	}

	if v.IsNil() {
		v.Set(reflect.MakeMap(v.Type()))
	}

	for !e.eof {
		name, value, found1, found2, err := e.readLine(true)
		if err != nil {
			return err
		}

		if !found1 || (!found2 && name != "}") {
			return e.fail(serial.ExpectingPairOrBrace, "")
		}

		if name == "}" {
			return nil
		}

		if name != "" && name[0] == '@' {
			if name == "@id" {
				id, err := strconv.ParseUint(value, 10, 64)
				if err != nil {
					return e.fail(serial.InvalidID, value)
				}

				e.slots[id] = &slot{obj: v.Interface()}

				continue
			}

			return e.fail(serial.WrongKeyword, name)
		}

		elem := reflect.New(v.Type().Elem()).Elem()

		_, err = e.readArrayValue(elem, nil, value)
		if err != nil {
			return err
		}

		key := reflect.ValueOf(name).Convert(v.Type().Key())
		v.SetMapIndex(key, elem)
	}

	return e.fail(serial.PrematureEOF, "")
}

// readAnyInto reads any document fragment into an empty-interface target:
// objects become map[string]interface{}, arrays []interface{}, scalars their
// natural Go value.
func (e *Engine) readAnyInto(v reflect.Value, token string) error {
	val, err := e.readAny(token)
	if err != nil {
		return err
	}

	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}

	v.Set(reflect.ValueOf(val))

	return nil
}

func (e *Engine) readAny(token string) (interface{}, error) {
	switch {
	case token == "{":
		m := map[string]interface{}{}

		for !e.eof {
			name, value, found1, found2, err := e.readLine(true)
			if err != nil {
				return nil, err
			}

			if !found1 || (!found2 && name != "}") {
				return nil, e.fail(serial.ExpectingPairOrBrace, "")
			}

			if name == "}" {
				return m, nil
			}

			val, err := e.readAny(value)
			if err != nil {
				return nil, err
			}

			m[name] = val
		}

		return nil, e.fail(serial.PrematureEOF, "")

	case token == "[":
		vals := []interface{}{}

		for !e.eof {
			tok, _, found, _, err := e.readLine(false)
			if err != nil {
				return nil, err
			}

			if !found {
				return nil, e.fail(serial.ExpectingValueOrBracket, "")
			}

			if tok == "]" {
				return vals, nil
			}

			val, err := e.readAny(tok)
			if err != nil {
				return nil, err
			}

			vals = append(vals, val)
		}

		return nil, e.fail(serial.PrematureEOF, "")

	case token == "null":
		return nil, nil

	case token == "true":
		return true, nil

	case token == "false":
		return false, nil

	case isNumber(token):
		if !strings.ContainsAny(token, ".eE") {
			n, err := strconv.ParseInt(token, 10, 64)
			if err == nil {
				return n, nil
			}
		}

		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, e.fail(serial.InvalidValue, token)
		}

		return f, nil

	default:
		return token, nil
	}
}
