// This file contains the member descriptors and the typed helpers that build
// them. A member knows how to read one value from a token and how to write
// one value given the owning object; the engine provides the Decoder and
// Encoder it works through.

package registry

import (
	"reflect"

	"github.com/objson/objson/serial"
)

// Member is one named field of a class participating in serialization.
type Member struct {
	name   string
	custom bool
	read   func(dec serial.Decoder, obj interface{}, token string) error
	write  func(enc serial.Encoder, obj interface{}) error
}

// Name returns the member name as it appears in documents.
func (m *Member) Name() string {
	return m.name
}

// Custom tells whether the member writes through a custom callable. Custom
// members emit their own name with Encoder.WriteMember.
func (m *Member) Custom() bool {
	return m.custom
}

// Read parses the token into the member of obj.
func (m *Member) Read(dec serial.Decoder, obj interface{}, token string) error {
	return m.read(dec, obj, token)
}

// Write emits the member of obj.
func (m *Member) Write(enc serial.Encoder, obj interface{}) error {
	return m.write(enc, obj)
}

// MemberDef is a member descriptor before it is given a name by
// Class.Member. Values are built by the helpers below.
type MemberDef struct {
	custom bool
	read   func(dec serial.Decoder, obj interface{}, token string) error
	write  func(enc serial.Encoder, obj interface{}) error
}

// writeField emits a field through the encoder, preserving the address of
// struct- and array-valued fields so that element identity survives under
// sharing, and routing interface-typed fields through the dynamic protocol.
func writeField[V any](enc serial.Encoder, f *V) error {
	switch reflect.TypeOf((*V)(nil)).Elem().Kind() {
	case reflect.Struct, reflect.Array:
		return enc.WriteValue(f)
	case reflect.Interface:
		return enc.WriteDynamic(*f)
	default:
		return enc.WriteValue(*f)
	}
}

// Field declares a member over a typed accessor to a field of the owning
// object:
//
//	registry.Field(func(c *Contact) *string { return &c.Firstname })
func Field[C any, V any](access func(*C) *V) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			return dec.ReadValue(access(obj.(*C)), token)
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			return writeField(enc, access(obj.(*C)))
		},
	}
}

// Static declares a member whose value does not depend on the owning object,
// typically a global. The value is written in every instance.
func Static[V any](v *V) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, _ interface{}, token string) error {
			return dec.ReadValue(v, token)
		},
		write: func(enc serial.Encoder, _ interface{}) error {
			return writeField(enc, v)
		},
	}
}

// Accessor declares a member through a setter and a getter, for fields that
// cannot be addressed directly. Reading decodes into a temporary and hands
// it to the setter.
func Accessor[C any, V any](set func(*C, V), get func(*C) V) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			var v V
			err := dec.ReadValue(&v, token)
			if err != nil {
				return err
			}

			set(obj.(*C), v)

			return nil
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			v := get(obj.(*C))
			return writeField(enc, &v)
		},
	}
}

// FieldCreator declares a pointer member whose pointee is allocated by the
// creator, for pointee classes without a usable zero value. The creator
// receives the owning object and returns a pointer to the new element.
func FieldCreator[C any, V any](access func(*C) *V, create func(*C) interface{}) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			c := obj.(*C)
			return dec.ReadPointee(access(c), func() interface{} {
				return create(c)
			}, token)
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			return writeField(enc, access(obj.(*C)))
		},
	}
}

// ContainerCreator declares a container member whose elements are allocated
// by the creator.
func ContainerCreator[C any, V any](access func(*C) *V, create func(*C) interface{}) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			c := obj.(*C)
			return dec.ReadContainer(access(c), func() interface{} {
				return create(c)
			}, token)
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			return writeField(enc, access(obj.(*C)))
		},
	}
}

// Container declares a member backed by a container adapter, for container
// shapes the engine has no native support for (sets, linked lists). See the
// serial/contain package for adapters.
func Container[C any](adapt func(*C) serial.Adapter) MemberDef {
	return MemberDef{
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			return dec.ReadContainer(adapt(obj.(*C)), nil, token)
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			return enc.WriteValue(adapt(obj.(*C)))
		},
	}
}

// Custom declares a member serialized by user functions. The write function
// is responsible for emitting its own name through Encoder.WriteMember; it
// may emit several members or none at all.
func Custom[C any](read func(*C, serial.Decoder, string) error, write func(*C, serial.Encoder) error) MemberDef {
	return MemberDef{
		custom: true,
		read: func(dec serial.Decoder, obj interface{}, token string) error {
			return read(obj.(*C), dec, token)
		},
		write: func(enc serial.Encoder, obj interface{}) error {
			return write(obj.(*C), enc)
		},
	}
}
