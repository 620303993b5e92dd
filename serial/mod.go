// Package serial defines the primitives shared by the serialization engine
// and the class registry: the syntax options accepted when reading, the
// error taxonomy, and the interfaces that member descriptors and container
// adapters program against.
//
// The engine itself lives in serial/engine and the class registry in
// serial/registry.
package serial

// Syntax is a bitmask of the JSON relaxations accepted when reading. The
// output of the engine is always strict JSON, whatever the mask says.
type Syntax uint

const (
	// Strict accepts only strict JSON.
	Strict Syntax = 0

	// Comments accepts line ("// ...") and block ("/* ... */") comments
	// outside of strings.
	Comments Syntax = 1

	// NoQuotes accepts unquoted names and values. Bare tokens are trimmed of
	// trailing whitespace.
	NoQuotes Syntax = 2

	// NoCommas makes a newline equivalent to a separating comma outside of
	// strings.
	NoCommas Syntax = 4

	// Newlines accepts newlines inside quoted strings and enables the
	// triple-quoted multi-line string form.
	Newlines Syntax = 8

	// Relaxed enables every relaxation at once.
	Relaxed = Comments | NoQuotes | NoCommas | Newlines
)

// DefaultSyntax is the mask used by a fresh engine.
const DefaultSyntax = Comments

// Decoder is the read-side interface the engine exposes to member
// descriptors and container adapters. The token argument is always the raw
// value token produced by the tokenizer: a scalar literal, or the opening
// "{"/"[" of a nested structure that the decoder will keep consuming from
// the stream.
type Decoder interface {
	// ReadValue parses the token into the value pointed to by target.
	ReadValue(target interface{}, token string) error

	// ReadPointee reads into a pointer or interface target, allocating the
	// pointee with create when it is not nil, otherwise with the registered
	// constructor of the pointee class.
	ReadPointee(target interface{}, create func() interface{}, token string) error

	// ReadContainer reads a JSON array into the container pointed to by
	// target. Elements needing allocation use create when it is not nil.
	ReadContainer(target interface{}, create func() interface{}, token string) error
}

// Encoder is the write-side interface the engine exposes to member
// descriptors and container adapters.
type Encoder interface {
	// WriteValue emits the value. A pointer to a registered class is written
	// with the object protocol, containers with the array protocol, maps
	// keyed by strings with the map protocol, anything else as a scalar.
	WriteValue(v interface{}) error

	// WriteDynamic emits the value as an object of its runtime class, tagged
	// with a @class marker when the class is registered. It is used for
	// interface-typed members, whose static class is unknown.
	WriteDynamic(v interface{}) error

	// WriteMember emits the pending member name followed by the value. A
	// custom member writer is responsible for emitting its own name through
	// this method; it may emit several members, or none.
	WriteMember(v interface{}) error
}

// Sink abstracts the mutation of an ordered container while a JSON array is
// being read. Add is called once per element with the raw element token;
// End is called when the closing bracket is reached.
type Sink interface {
	Add(dec Decoder, create func() interface{}, token string) error
	End(dec Decoder) error
}

// Source abstracts the traversal of a container while it is being written as
// a JSON array.
type Source interface {
	// Len returns the number of elements. An empty container is emitted as
	// "[]" on a single line.
	Len() int

	// EachElement calls fn for every element in traversal order. The
	// iteration stops on the first error.
	EachElement(fn func(elem interface{}) error) error
}

// Adapter combines both sides of a container adaptation. Foreign container
// types (sets, linked lists) are wired to the engine through values
// implementing this interface. See the serial/contain package.
type Adapter interface {
	Sink
	Source
}
