// Package engine implements the serialization engine: a tokenizer for the
// accepted JSON dialects, a recursive-descent reader that rebuilds object
// graphs through the class registry, and a writer that emits graphs as
// strict JSON with @class and @id markers where needed.
//
// An engine is long-lived and strictly single-threaded: it performs one read
// or one write at a time and resets its transient identity tables at the
// start of every top-level operation. Numeric formatting goes through
// strconv and is therefore independent of the ambient locale.
//
// Documentation Last Review: 13.05.2024
package engine

import (
	"bufio"
	"io"
	"os"

	"github.com/objson/objson"
	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/registry"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// Engine reads and writes object graphs. Use New to create one, the Set
// methods to configure it, and Read/Write or their file variants to run an
// operation.
//
// - implements serial.Decoder
// - implements serial.Encoder
type Engine struct {
	reg     *registry.Registry
	allow   serial.Syntax
	sharing bool
	tabChar byte
	indent  int
	handler serial.Handler
	logger  zerolog.Logger

	// Transient state, reset at the start of every top-level operation.
	in         *bufio.Reader
	out        *bufio.Writer
	stream     string
	line       int
	eof        bool
	reading    bool
	needComma  bool
	level      int
	memberName string
	pending    string
	objToID    map[uintptr]uint64
	nextID     uint64
	slots      map[uint64]*slot
	err        *serial.Error
}

// slot is the read-side identity record of one @id. At most one slot exists
// per id within a single read; sequence adapters re-point obj when a
// reallocation moved the element the slot was recorded for.
type slot struct {
	obj interface{}
}

// Option is a function to set an optional setting of the engine.
type Option func(*Engine)

// WithHandler sets the callback invoked for every error the engine reports.
// Without a handler, errors are logged.
func WithHandler(h serial.Handler) Option {
	return func(e *Engine) {
		e.handler = h
	}
}

// WithSharing enables object sharing from the start. Equivalent to calling
// SetSharing(true).
func WithSharing() Option {
	return func(e *Engine) {
		e.sharing = true
	}
}

// New returns an engine bound to the registry.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:     reg,
		allow:   serial.DefaultSyntax,
		tabChar: ' ',
		indent:  2,
		logger:  objson.Logger.With().Str("component", "engine").Logger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetSharing controls object sharing. When enabled, objects reachable by
// several paths are written once and referenced by id afterwards, and cyclic
// graphs become writable. When disabled, shared objects are duplicated and
// writing a cyclic graph does not terminate: the caller must avoid it.
func (e *Engine) SetSharing(mode bool) {
	e.sharing = mode
}

// Sharing returns whether object sharing is enabled.
func (e *Engine) Sharing() bool {
	return e.sharing
}

// SetSyntax sets the mask of accepted JSON relaxations for reading.
func (e *Engine) SetSyntax(mask serial.Syntax) {
	e.allow = mask
}

// Syntax returns the current syntax mask.
func (e *Engine) Syntax() serial.Syntax {
	return e.allow
}

// SetIndent sets the indentation character and how many times it is repeated
// per nesting level.
func (e *Engine) SetIndent(char byte, count int) {
	e.tabChar = char
	e.indent = count
}

// Read reads a value from the stream into target, which must be a non-nil
// pointer. It returns a non-nil error as soon as anything was reported,
// including non-fatal warnings; recognized members are populated either way.
func (e *Engine) Read(target interface{}, in io.Reader) error {
	return e.ReadNamed(target, in, "", 1)
}

// ReadNamed is Read with a stream name and a first-line number used in error
// reports.
func (e *Engine) ReadNamed(target interface{}, in io.Reader, name string, firstLine int) error {
	e.reset(name, firstLine, in, nil)

	e.logger.Trace().
		Str("op", xid.New().String()).
		Str("stream", name).
		Msg("reading stream")

	readOps.Inc()

	tok, _, found, _, err := e.readLine(true)
	if err != nil {
		return err
	}

	if !found {
		return e.fail(serial.NoData, "")
	}

	err = e.ReadValue(target, tok)
	if err != nil {
		return err
	}

	if e.err != nil {
		return e.err
	}

	return nil
}

// Write writes the value on the stream. Pass a pointer when the graph
// contains shared objects so that identity is preserved. It returns a
// non-nil error as soon as anything was reported.
func (e *Engine) Write(v interface{}, out io.Writer) error {
	return e.WriteNamed(v, out, "", 1)
}

// WriteNamed is Write with a stream name and a first-line number used in
// error reports.
func (e *Engine) WriteNamed(v interface{}, out io.Writer, name string, firstLine int) error {
	e.reset(name, firstLine, nil, out)

	e.logger.Trace().
		Str("op", xid.New().String()).
		Str("stream", name).
		Msg("writing stream")

	writeOps.Inc()

	err := e.WriteValue(v)
	if err != nil {
		return err
	}

	err = e.out.WriteByte('\n')
	if err == nil {
		err = e.out.Flush()
	}

	if err != nil {
		return e.fail(serial.CantWriteFile, err.Error())
	}

	if e.err != nil {
		return e.err
	}

	return nil
}

// ReadFile reads a value from the file at path.
func (e *Engine) ReadFile(target interface{}, path string) error {
	f, err := os.Open(path)
	if err != nil {
		e.reset(path, 0, nil, nil)
		e.reading = true

		return e.fail(serial.CantReadFile, "")
	}

	defer f.Close()

	return e.ReadNamed(target, f, path, 1)
}

// WriteFile writes the value to the file at path, creating or truncating
// it.
func (e *Engine) WriteFile(v interface{}, path string) error {
	f, err := os.Create(path)
	if err != nil {
		e.reset(path, 0, nil, nil)
		e.reading = false

		return e.fail(serial.CantWriteFile, "")
	}

	defer f.Close()

	return e.WriteNamed(v, f, path, 1)
}

// Err returns the error recorded by the last operation, or nil.
func (e *Engine) Err() error {
	if e.err == nil {
		return nil
	}

	return e.err
}

func (e *Engine) reset(name string, line int, in io.Reader, out io.Writer) {
	e.in = nil
	e.out = nil

	if in != nil {
		e.in = bufio.NewReader(in)
		e.reading = true
	}

	if out != nil {
		e.out = bufio.NewWriter(out)
		e.reading = false
	}

	e.stream = name
	e.line = line
	e.eof = false
	e.needComma = false
	e.level = 0
	e.memberName = ""
	e.pending = ""
	e.objToID = make(map[uintptr]uint64)
	e.nextID = 0
	e.slots = make(map[uint64]*slot)
	e.err = nil
}

func (e *Engine) where() string {
	if e.reading {
		return "read"
	}

	return "write"
}

// fail reports a fatal error and returns it: the current operation unwinds.
func (e *Engine) fail(code serial.Code, arg string) error {
	err := &serial.Error{
		Code:   code,
		Where:  e.where(),
		Arg:    arg,
		Stream: e.stream,
		Line:   e.line,
		Fatal:  true,
	}

	e.notify(err)
	e.err = err

	failTotal.WithLabelValues(code.String()).Inc()

	return err
}

// warn reports a non-fatal error: the operation continues but will return
// failure.
func (e *Engine) warn(code serial.Code, arg string) {
	err := &serial.Error{
		Code:   code,
		Where:  e.where(),
		Arg:    arg,
		Stream: e.stream,
		Line:   e.line,
	}

	e.notify(err)

	if e.err == nil {
		e.err = err
	}

	warnTotal.WithLabelValues(code.String()).Inc()
}

func (e *Engine) notify(err *serial.Error) {
	if e.handler != nil {
		e.handler(err)
		return
	}

	if err.Fatal {
		e.logger.Error().Err(err).Msg("operation failed")
	} else {
		e.logger.Warn().Err(err).Msg("operation reported a warning")
	}
}
