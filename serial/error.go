// This file contains the error taxonomy of the library. Every failure is
// reported as an *Error carrying a code, the context it happened in, the
// stream name and line number when reading, and whether it aborted the
// operation.

package serial

import (
	"fmt"
	"strings"
)

// Code identifies one kind of serialization error.
type Code int

// The error codes. They cover registration, I/O, lexical, syntactic and
// semantic failures; the declaration order does not group them by origin.
const (
	OK Code = iota
	CantReadFile
	CantWriteFile
	NoData
	PrematureEOF
	InvalidCharacter
	ExpectingComma
	ExpectingDelimiter
	ExpectingBrace
	ExpectingBracket
	ExpectingPairOrBrace
	ExpectingValueOrBracket
	ExpectingString
	UnknownClass
	UnknownSuperclass
	RedefinedClass
	RedefinedSuperclass
	UnknownMember
	RedefinedMember
	AbstractClass
	CantCreateObject
	CantAddToArray
	InvalidValue
	InvalidID
	WrongKeyword
)

var messages = map[Code]string{
	OK:                      "OK",
	CantReadFile:            "can't read file (not found or not readable)",
	CantWriteFile:           "can't write file",
	NoData:                  "no data",
	PrematureEOF:            "premature end of file",
	InvalidCharacter:        "invalid character in string:",
	ExpectingComma:          "expecting comma",
	ExpectingDelimiter:      "expecting , or } or ]",
	ExpectingBrace:          "expecting {",
	ExpectingBracket:        "expecting [",
	ExpectingPairOrBrace:    "expecting } or name:value pair",
	ExpectingValueOrBracket: "expecting ] or value",
	ExpectingString:         "expecting a quoted name:",
	UnknownClass:            "unknown class:",
	UnknownSuperclass:       "unknown superclass:",
	RedefinedClass:          "class is already declared:",
	RedefinedSuperclass:     "already declared as a superclass:",
	UnknownMember:           "unknown member:",
	RedefinedMember:         "class member is already defined:",
	AbstractClass:           "can't create instance of abstract class:",
	CantCreateObject:        "could not create object:",
	CantAddToArray:          "array is too small to add value",
	InvalidValue:            "invalid value:",
	InvalidID:               "ID number expected after @",
	WrongKeyword:            "expecting @id or @class before:",
}

// Message returns the one-line message associated with the code.
func Message(code Code) string {
	msg, ok := messages[code]
	if !ok {
		return "unknown error"
	}

	return msg
}

// String implements fmt.Stringer. It returns a stable identifier for the
// code, usable as a metric label.
func (c Code) String() string {
	names := [...]string{
		"OK", "CantReadFile", "CantWriteFile", "NoData", "PrematureEOF",
		"InvalidCharacter", "ExpectingComma", "ExpectingDelimiter",
		"ExpectingBrace", "ExpectingBracket", "ExpectingPairOrBrace",
		"ExpectingValueOrBracket", "ExpectingString", "UnknownClass",
		"UnknownSuperclass", "RedefinedClass", "RedefinedSuperclass",
		"UnknownMember", "RedefinedMember", "AbstractClass",
		"CantCreateObject", "CantAddToArray", "InvalidValue", "InvalidID",
		"WrongKeyword",
	}
	if c < 0 || int(c) >= len(names) {
		return "Unknown"
	}

	return names[c]
}

// Error is a structured serialization error.
//
// - implements error
type Error struct {
	// Code identifies the kind of error.
	Code Code

	// Where describes the context: "read", "write", or the registration call
	// that failed ("defclass()", "extends()", "member()").
	Where string

	// Arg carries the human context of the error, e.g. the offending token
	// or the member and class names.
	Arg string

	// Stream is the name given to the stream, usually a file path. Empty
	// for anonymous streams.
	Stream string

	// Line is the 1-based line number the error was detected at, or 0 when
	// there is no meaningful position.
	Line int

	// Fatal tells whether the error aborted the operation. Non-fatal errors
	// (unknown members) let the operation continue, but the top-level call
	// still reports failure.
	Fatal bool
}

// Handler is a callback receiving every error as it is reported. When no
// handler is installed, errors are logged instead.
type Handler func(*Error)

// Error implements error. The format follows the report layout of the error
// printer: context, position, message, argument.
func (e *Error) Error() string {
	b := new(strings.Builder)

	switch e.Where {
	case "read":
		b.WriteString("error while reading")
	case "write":
		b.WriteString("error while writing")
	default:
		fmt.Fprintf(b, "error in %s", e.Where)
	}

	if e.Line > 0 {
		fmt.Fprintf(b, " at or before line %d", e.Line)
	}

	if e.Stream != "" {
		fmt.Fprintf(b, " in '%s'", e.Stream)
	}

	b.WriteString(": ")
	b.WriteString(Message(e.Code))

	if e.Arg != "" {
		b.WriteString(" ")
		b.WriteString(e.Arg)
	}

	return b.String()
}
