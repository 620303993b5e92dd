package engine

import (
	"strings"
	"testing"

	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/registry"
	"github.com/stretchr/testify/require"
)

func newLexer(t *testing.T, src string, mask serial.Syntax) *Engine {
	t.Helper()

	e := New(registry.NewRegistry())
	e.SetSyntax(mask)
	e.reset("", 1, strings.NewReader(src), nil)

	return e
}

func TestLexer_QuotedPair(t *testing.T) {
	e := newLexer(t, `"name": "value",`, serial.Strict)

	tok1, tok2, found1, found2, err := e.readLine(true)
	require.NoError(t, err)
	require.True(t, found1)
	require.True(t, found2)
	require.Equal(t, "name", tok1)
	require.Equal(t, "value", tok2)
}

func TestLexer_Structural(t *testing.T) {
	e := newLexer(t, "  { ", serial.Strict)

	tok1, _, found1, _, err := e.readLine(true)
	require.NoError(t, err)
	require.True(t, found1)
	require.Equal(t, "{", tok1)

	e = newLexer(t, `"a": [`, serial.Strict)

	_, tok2, _, found2, err := e.readLine(true)
	require.NoError(t, err)
	require.True(t, found2)
	require.Equal(t, "[", tok2)
}

func TestLexer_Escapes(t *testing.T) {
	e := newLexer(t, `"a": "x\"y\\z\n\t\b\f\r\/q",`, serial.Strict)

	_, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "x\"y\\z\n\t\b\f\r/q", tok2)
}

func TestLexer_Comments(t *testing.T) {
	src := "/* header */ \"a\" /* mid */: // trailing\n \"b\","

	e := newLexer(t, src, serial.Comments)

	tok1, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "a", tok1)
	require.Equal(t, "b", tok2)
}

func TestLexer_NoCommas(t *testing.T) {
	e := newLexer(t, "\"a\": \"1\"\n\"b\": \"2\"\n", serial.NoCommas)

	tok1, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "a", tok1)
	require.Equal(t, "1", tok2)

	tok1, tok2, _, _, err = e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "b", tok1)
	require.Equal(t, "2", tok2)
}

func TestLexer_NoQuotes(t *testing.T) {
	e := newLexer(t, "a: some bare text  ,", serial.NoQuotes)

	tok1, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "a", tok1)

	// Bare tokens are trimmed of trailing whitespace only.
	require.Equal(t, "some bare text", tok2)
}

func TestLexer_BareValidation(t *testing.T) {
	for _, valid := range []string{"null", "true", "false", "12", "-4.5", "1e-3", "6.02E+23"} {
		e := newLexer(t, `"a": `+valid+`,`, serial.Strict)

		_, tok2, _, _, err := e.readLine(true)
		require.NoError(t, err)
		require.Equal(t, valid, tok2)
	}

	for _, invalid := range []string{"nope", "1.2.3", "1e4e5", "--2"} {
		e := newLexer(t, `"a": `+invalid+`,`, serial.Strict)

		_, _, _, _, err := e.readLine(true)
		require.Error(t, err)
		require.Contains(t, err.Error(), "(should be quoted?)")
	}
}

func TestLexer_NewlinesInStrings(t *testing.T) {
	e := newLexer(t, "\"a\": \"first\nsecond\",", serial.Strict)

	_, _, _, _, err := e.readLine(true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid character in string: newline (code: 10)")

	e = newLexer(t, "\"a\": \"first\nsecond\",", serial.Newlines)

	_, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", tok2)
}

func TestLexer_TripleQuotes(t *testing.T) {
	src := "\"a\": \"\"\"line one\n  line \"two\"\n\"\"\","

	e := newLexer(t, src, serial.Newlines)

	_, tok2, _, found2, err := e.readLine(true)
	require.NoError(t, err)
	require.True(t, found2)
	require.Equal(t, "line one\n  line \"two\"\n", tok2)
}

func TestLexer_EmptyQuotedValue(t *testing.T) {
	e := newLexer(t, `"a": "",`, serial.Strict)

	_, tok2, _, found2, err := e.readLine(true)
	require.NoError(t, err)
	require.True(t, found2)
	require.Equal(t, "", tok2)
}

func TestLexer_LineCount(t *testing.T) {
	e := newLexer(t, "\n\n\"a\": \"b\",", serial.Strict)

	_, _, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, 3, e.line)
}

func TestLexer_ControlCharacter(t *testing.T) {
	e := newLexer(t, "\"a\": \"b\x01c\",", serial.Strict)

	_, _, _, _, err := e.readLine(true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "(code: 1)")
}

func TestLexer_CommentEndsBareValue(t *testing.T) {
	src := "type: home  // phone\nnumber: 2\n"

	e := newLexer(t, src, serial.Relaxed)

	tok1, tok2, _, _, err := e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "type", tok1)
	require.Equal(t, "home", tok2)

	tok1, tok2, _, _, err = e.readLine(true)
	require.NoError(t, err)
	require.Equal(t, "number", tok1)
	require.Equal(t, "2", tok2)
}
