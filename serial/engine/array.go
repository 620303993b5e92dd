// This file contains the built-in sinks for slices and fixed-size arrays.
// Foreign container shapes (sets, linked lists) are adapted in the
// serial/contain package instead.

package engine

import (
	"reflect"

	"github.com/objson/objson/serial"
)

// sliceSink appends decoded elements to a slice. Elements read in place that
// registered an identity slot are recorded so that End can re-point the slot
// to the element's final address: appending may have reallocated the backing
// array in between. Pointer-typed elements need no fix-up, their pointees
// never move.
type sliceSink struct {
	e      *Engine
	v      reflect.Value
	fixups []sliceFixup
}

type sliceFixup struct {
	index int
	sl    *slot
}

func newSliceSink(e *Engine, v reflect.Value) *sliceSink {
	v.Set(v.Slice(0, 0))

	return &sliceSink{e: e, v: v}
}

// Add implements serial.Sink. It grows the slice by one zero element and
// reads the token into it.
func (s *sliceSink) Add(_ serial.Decoder, create func() interface{}, token string) error {
	n := s.v.Len()
	s.v.Set(reflect.Append(s.v, reflect.Zero(s.v.Type().Elem())))

	elem := s.v.Index(n)

	sl, err := s.e.readArrayValue(elem, create, token)
	if err != nil {
		return err
	}

	if sl != nil && elem.Kind() == reflect.Struct && sl.obj == elem.Addr().Interface() {
		s.fixups = append(s.fixups, sliceFixup{index: n, sl: sl})
	}

	return nil
}

// End implements serial.Sink. It re-points the recorded identity slots to
// the now-stable element addresses.
func (s *sliceSink) End(serial.Decoder) error {
	for _, f := range s.fixups {
		f.sl.obj = s.v.Index(f.index).Addr().Interface()
	}

	return nil
}

// arraySink assigns decoded elements to a fixed-size array, failing with
// CantAddToArray when the array overflows.
type arraySink struct {
	e     *Engine
	v     reflect.Value
	index int
}

// Add implements serial.Sink.
func (s *arraySink) Add(_ serial.Decoder, create func() interface{}, token string) error {
	if s.index >= s.v.Len() {
		return s.e.fail(serial.CantAddToArray, "")
	}

	elem := s.v.Index(s.index)
	s.index++

	_, err := s.e.readArrayValue(elem, create, token)

	return err
}

// End implements serial.Sink. Array elements never move, there is nothing to
// fix up.
func (s *arraySink) End(serial.Decoder) error {
	return nil
}
