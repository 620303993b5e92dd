package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:   UnknownMember,
		Where:  "read",
		Arg:    "'extra' in class 'P'",
		Stream: "contacts.json",
		Line:   3,
	}

	expected := "error while reading at or before line 3 in 'contacts.json': " +
		"unknown member: 'extra' in class 'P'"
	require.Equal(t, expected, err.Error())
}

func TestError_Write(t *testing.T) {
	err := &Error{
		Code:  CantWriteFile,
		Where: "write",
		Fatal: true,
	}

	require.Equal(t, "error while writing: can't write file", err.Error())
}

func TestError_Registration(t *testing.T) {
	err := &Error{
		Code:  RedefinedClass,
		Where: "defclass()",
		Arg:   "Contact",
		Fatal: true,
	}

	require.Equal(t, "error in defclass(): class is already declared: Contact", err.Error())
}

func TestMessage(t *testing.T) {
	require.Equal(t, "no data", Message(NoData))
	require.Equal(t, "unknown error", Message(Code(1000)))
}

func TestCode_String(t *testing.T) {
	require.Equal(t, "OK", OK.String())
	require.Equal(t, "InvalidValue", InvalidValue.String())
	require.Equal(t, "WrongKeyword", WrongKeyword.String())
	require.Equal(t, "Unknown", Code(1000).String())
}

func TestSyntax_Values(t *testing.T) {
	require.Equal(t, Syntax(0), Strict)
	require.Equal(t, Syntax(1), Comments)
	require.Equal(t, Syntax(2), NoQuotes)
	require.Equal(t, Syntax(4), NoCommas)
	require.Equal(t, Syntax(8), Newlines)
	require.Equal(t, Syntax(15), Relaxed)
	require.Equal(t, Comments, DefaultSyntax)
}
