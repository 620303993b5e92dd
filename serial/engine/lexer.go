// This file contains the tokenizer: a single-pass scanner producing
// (name, value) pairs according to the dialect mask. Names and values can be
// quoted, bare (NoQuotes), or multi-line triple-quoted (Newlines); comments
// are skipped outside of strings (Comments); a newline separates pairs like
// a comma does (NoCommas).

package engine

import (
	"fmt"

	"github.com/objson/objson/serial"
)

type lexState int

const (
	begin lexState = iota
	inQuotedName
	inBareName
	afterName
	afterColon
	inQuotedValue
	inBareValue
	afterValue
	blockComment
	lineComment
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

func isCntrl(c byte) bool {
	return c < 0x20 || c == 0x7f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// readLine scans the next (name, value) pair. In object context (inObj) it
// expects `name: value`, in array context a bare value ends the pair. The
// found flags tell which tokens are present; structural characters are
// returned as one-character tokens. The scanner sets e.eof once the stream
// is exhausted.
func (e *Engine) readLine(inObj bool) (tok1, tok2 string, found1, found2 bool, err error) {
	var acc1, acc2 []byte
	var done1 bool
	multi := false

	part, lastPart := begin, begin

	for {
		c, rerr := e.in.ReadByte()
		if rerr != nil {
			e.eof = true

			// A bare token ending the stream was not followed by a colon:
			// it is a value, not a name.
			if len(acc1) > 0 && !done1 {
				tok1, err = e.checkValue(acc1, false)
			}

			return
		}

		if c == '\n' {
			e.line++
		} else if isCntrl(c) && !isSpace(c) {
			err = e.invalidChar(c)
			return
		}

		if e.allow&serial.Comments != 0 && part != inQuotedName && part != inQuotedValue {
			if part != blockComment && c == '/' && e.peekIs('/') {
				if part != lineComment {
					lastPart = part
					part = lineComment
				}
			} else if part != lineComment && c == '/' && e.peekIs('*') {
				if part != blockComment {
					e.in.ReadByte()
					lastPart = part
					part = blockComment
				}
			}
		}

		switch part {
		case begin:
			if c == '"' {
				found1 = true
				part = inQuotedName
			} else if c == '{' || c == '[' {
				found1 = true
				tok1 = string(c)
				return
			} else if !isSpace(c) {
				found1 = true
				acc1 = append(acc1, c)
				part = inBareName
			}

		case inQuotedName:
			if c == '"' {
				tok1 = string(acc1)
				done1 = true
				part = afterName
			} else if c == '\\' {
				e.readEscape(&acc1)
			} else if isCntrl(c) && (e.allow&serial.Newlines == 0 || !isSpace(c)) {
				err = e.invalidChar(c)
				return
			} else {
				acc1 = append(acc1, c)
			}

		case inBareName:
			if c == ',' || (e.allow&serial.NoCommas != 0 && c == '\n') {
				tok1, err = e.checkValue(acc1, inObj)
				return
			} else if c == '}' || c == ']' {
				e.in.UnreadByte()
				tok1, err = e.checkValue(acc1, inObj)
				return
			} else if c == ':' && inObj {
				tok1, err = e.checkValue(acc1, inObj)
				if err != nil {
					return
				}
				done1 = true
				part = afterColon
			} else if c == '\\' {
				e.readEscape(&acc1)
			} else {
				acc1 = append(acc1, c)
			}

		case afterName:
			if c == ',' || (e.allow&serial.NoCommas != 0 && c == '\n') {
				return
			} else if c == '}' || c == ']' {
				e.in.UnreadByte()
				return
			} else if c == ':' && inObj {
				part = afterColon
			} else if !isSpace(c) {
				err = e.fail(serial.ExpectingComma, "")
				return
			}

		case afterColon:
			if c == '"' {
				found2 = true

				if !e.peekIs('"') {
					part = inQuotedValue
				} else {
					e.in.ReadByte()

					if !e.peekIs('"') {
						tok2 = ""
						part = afterValue
					} else {
						e.in.ReadByte()
						part = inQuotedValue
						multi = true
					}
				}
			} else if c == '{' || c == '[' {
				found2 = true
				tok2 = string(c)
				return
			} else if !isSpace(c) {
				found2 = true
				acc2 = append(acc2, c)
				part = inBareValue
			}

		case inQuotedValue:
			if c == '"' {
				if !multi {
					tok2 = string(acc2)
					part = afterValue
				} else if !e.peekIs('"') {
					acc2 = append(acc2, '"')
				} else {
					e.in.ReadByte()

					if !e.peekIs('"') {
						acc2 = append(acc2, '"', '"')
					} else {
						e.in.ReadByte()
						tok2 = string(acc2)
						part = afterValue
						multi = false
					}
				}
			} else if multi && isSpace(c) {
				acc2 = append(acc2, c)
			} else if c == '\\' {
				e.readEscape(&acc2)
			} else if isCntrl(c) && (e.allow&serial.Newlines == 0 || !isSpace(c)) {
				err = e.invalidChar(c)
				return
			} else {
				acc2 = append(acc2, c)
			}

		case inBareValue:
			if c == ',' || (e.allow&serial.NoCommas != 0 && c == '\n') {
				tok2, err = e.checkValue(acc2, false)
				return
			} else if c == '}' || c == ']' {
				e.in.UnreadByte()
				tok2, err = e.checkValue(acc2, false)
				return
			} else if c == '\\' {
				e.readEscape(&acc2)
			} else {
				acc2 = append(acc2, c)
			}

		case afterValue:
			if c == ',' || (e.allow&serial.NoCommas != 0 && c == '\n') {
				return
			} else if c == '}' || c == ']' {
				e.in.UnreadByte()
				return
			} else if !isSpace(c) {
				err = e.fail(serial.ExpectingDelimiter, "")
				return
			}

		case lineComment:
			if c == '\n' {
				part = lastPart

				// The newline ending the comment still separates pairs under
				// NoCommas, whatever state the comment interrupted.
				if e.allow&serial.NoCommas != 0 {
					switch part {
					case inBareName:
						tok1, err = e.checkValue(acc1, inObj)
						return
					case inBareValue:
						tok2, err = e.checkValue(acc2, false)
						return
					case afterName, afterValue:
						return
					}
				}
			}

		case blockComment:
			if c == '*' && e.peekIs('/') {
				e.in.ReadByte()
				part = lastPart
			}
		}
	}
}

// peekIs tells whether the next byte of the stream is c, without consuming
// it. The end of the stream matches nothing.
func (e *Engine) peekIs(c byte) bool {
	b, err := e.in.Peek(1)
	return err == nil && b[0] == c
}

// readEscape decodes one backslash escape into the accumulator. Unknown
// escapes pass the escaped character through.
func (e *Engine) readEscape(acc *[]byte) {
	c, err := e.in.ReadByte()
	if err != nil {
		e.eof = true
		return
	}

	switch c {
	case '"', '\\', '/':
		*acc = append(*acc, c)
	case 'b':
		*acc = append(*acc, '\b')
	case 'f':
		*acc = append(*acc, '\f')
	case 'n':
		*acc = append(*acc, '\n')
	case 'r':
		*acc = append(*acc, '\r')
	case 't':
		*acc = append(*acc, '\t')
	default:
		*acc = append(*acc, c)
	}
}

// checkValue trims a bare token of trailing whitespace and validates it. A
// bare name needs NoQuotes; a bare value must be null, a boolean or a number
// unless NoQuotes relaxes that.
func (e *Engine) checkValue(acc []byte, name bool) (string, error) {
	end := len(acc)
	for end > 0 && isSpace(acc[end-1]) {
		end--
	}

	tok := string(acc[:end])

	if name {
		if e.allow&serial.NoQuotes != 0 || (tok != "" && (tok[0] == '}' || tok[0] == ']')) {
			return tok, nil
		}

		return tok, e.fail(serial.ExpectingString, tok)
	}

	if e.allow&serial.NoQuotes != 0 || tok == "" ||
		tok[0] == '}' || tok[0] == ']' ||
		tok == "true" || tok == "false" || tok == "null" ||
		isNumber(tok) {

		return tok, nil
	}

	return tok, e.fail(serial.InvalidValue, tok+" (should be quoted?)")
}

// isNumber tells whether the token is a JSON-style number: an optional
// leading minus, digits, at most one dot and one exponent.
func isNumber(tok string) bool {
	if tok == "" {
		return false
	}

	dot, exp, digits := false, false, false

	i := 0
	if tok[0] == '-' {
		i++
	}

	for ; i < len(tok); i++ {
		c := tok[i]
		if isDigit(c) {
			digits = true
			continue
		}

		switch {
		case c == '.':
			if dot {
				return false
			}
			dot = true
		case c == 'e' || c == 'E':
			if exp {
				return false
			}
			exp = true
			if i+1 < len(tok) && (tok[i+1] == '+' || tok[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}

	return digits
}

func (e *Engine) invalidChar(c byte) error {
	var msg string

	switch c {
	case '\n':
		msg = "newline "
	case '\r':
		msg = "CR "
	case '\t':
		msg = "tab "
	}

	return e.fail(serial.InvalidCharacter, fmt.Sprintf("%s(code: %d)", msg, c))
}
