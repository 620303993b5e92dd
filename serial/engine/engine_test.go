package engine

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/objson/objson/internal/testing/fake"
	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/registry"
	"github.com/stretchr/testify/require"
)

// Test fixture: a small contact book with inheritance, polymorphism, shared
// objects and every member variant.

type gender int

const (
	unknown gender = iota
	male
	female
)

type phone struct {
	Type   string
	Number string
}

type address struct {
	Street string
	City   string
}

type contact struct {
	Firstname string
	Lastname  string
	Gender    gender
	Alive     bool
	Age       uint16
	Height    float64
	Address   *address
	Phones    []*phone
	Children  []*contact
	Partner   *contact
}

type photo struct {
	Image string
	Width uint
}

type photoContact struct {
	contact
	photo
}

func newContactRegistry(t *testing.T) *registry.Registry {
	reg := registry.NewRegistry()

	reg.Define("Phone", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type })).
		Member("number", registry.Accessor(
			func(p *phone, s string) { p.Number = s },
			func(p *phone) string { return p.Number },
		))

	reg.Define("Address", registry.Abstract[address]()).
		Member("street", registry.Field(func(a *address) *string { return &a.Street })).
		Member("city", registry.Field(func(a *address) *string { return &a.City }))

	reg.Define("Contact", registry.New[contact]()).
		Member("firstname", registry.Field(func(c *contact) *string { return &c.Firstname })).
		Member("lastname", registry.Field(func(c *contact) *string { return &c.Lastname })).
		Member("gender", registry.Field(func(c *contact) *gender { return &c.Gender })).
		Member("isalive", registry.Field(func(c *contact) *bool { return &c.Alive })).
		Member("age", registry.Field(func(c *contact) *uint16 { return &c.Age })).
		Member("height", registry.Field(func(c *contact) *float64 { return &c.Height })).
		Member("address", registry.FieldCreator(
			func(c *contact) **address { return &c.Address },
			func(*contact) interface{} { return &address{} },
		)).
		Member("phones", registry.Field(func(c *contact) *[]*phone { return &c.Phones })).
		Member("children", registry.Field(func(c *contact) *[]*contact { return &c.Children })).
		Member("partner", registry.Field(func(c *contact) **contact { return &c.Partner }))

	reg.Define("Photo", registry.Abstract[photo]()).
		Member("image", registry.Field(func(p *photo) *string { return &p.Image })).
		Member("width", registry.Field(func(p *photo) *uint { return &p.Width }))

	reg.Define("PhotoContact", registry.New[photoContact]()).
		Extends(registry.Base(func(pc *photoContact) *contact { return &pc.contact })).
		Extends(registry.Base(func(pc *photoContact) *photo { return &pc.photo }))

	require.NoError(t, reg.Err())

	return reg
}

func makeContact() *contact {
	return &contact{
		Firstname: "Bob",
		Lastname:  "Dupond",
		Gender:    male,
		Alive:     true,
		Age:       30,
		Height:    1.75,
		Address:   &address{Street: "1 rue de la Paix", City: "Paris"},
		Phones: []*phone{
			{Type: "home", Number: "212"},
			{Type: "work", Number: "213"},
		},
	}
}

func TestEngine_WriteSingleObject(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Define("P", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type })).
		Member("number", registry.Field(func(p *phone) *string { return &p.Number }))

	e := New(reg)

	buf := new(bytes.Buffer)

	err := e.Write(&phone{Type: "home", Number: "212"}, buf)
	require.NoError(t, err)

	expected := "{\n  \"type\": \"home\",\n  \"number\": \"212\"\n}\n"
	require.Equal(t, expected, buf.String())
}

func TestEngine_RoundTrip(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	c := makeContact()

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(c, buf))

	var back contact
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))

	require.Equal(t, *c.Address, *back.Address)
	require.Equal(t, c.Firstname, back.Firstname)
	require.Equal(t, c.Gender, back.Gender)
	require.Equal(t, c.Age, back.Age)
	require.Equal(t, c.Height, back.Height)
	require.Len(t, back.Phones, 2)
	require.Equal(t, *c.Phones[1], *back.Phones[1])
}

func TestEngine_Idempotence(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	c := makeContact()

	first := new(bytes.Buffer)
	require.NoError(t, e.Write(c, first))

	var back contact
	require.NoError(t, e.Read(&back, bytes.NewReader(first.Bytes())))

	second := new(bytes.Buffer)
	require.NoError(t, e.Write(&back, second))

	require.Equal(t, first.String(), second.String())
}

type node struct {
	V    int
	Next *node
}

type pair struct {
	First  *node
	Second *node
}

func newNodeRegistry(t *testing.T) *registry.Registry {
	reg := registry.NewRegistry()

	reg.Define("Node", registry.New[node]()).
		Member("v", registry.Field(func(n *node) *int { return &n.V })).
		Member("next", registry.Field(func(n *node) **node { return &n.Next }))

	reg.Define("Pair", registry.New[pair]()).
		Member("first", registry.Field(func(p *pair) **node { return &p.First })).
		Member("second", registry.Field(func(p *pair) **node { return &p.Second }))

	require.NoError(t, reg.Err())

	return reg
}

func TestEngine_SharedObject(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg, WithSharing())

	a := &node{V: 1, Next: &node{V: 2}}
	p := &pair{First: a, Second: a}

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(p, buf))

	expected := `{
  "@id": "1",
  "first": {
    "@id": "2",
    "v": 1,
    "next": {
      "@id": "3",
      "v": 2,
      "next": null
    }
  },
  "second": "@2"
}
`
	require.Equal(t, expected, buf.String())

	var back pair
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))

	require.NotNil(t, back.First)
	require.Same(t, back.First, back.Second)
	require.Equal(t, 2, back.First.Next.V)
}

func TestEngine_Cycle(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg, WithSharing())

	a := &node{V: 1}
	b := &node{V: 2, Next: a}
	a.Next = b

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(a, buf))
	require.Contains(t, buf.String(), `"@1"`)

	var back *node
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))

	require.Equal(t, 1, back.V)
	require.Same(t, back, back.Next.Next)
}

// shapeRef is the polymorphic reference of the fixture: the runtime class of
// the value decides what is written.
type shapeRef interface {
	isShape()
}

type shape struct {
	X int
}

type circle struct {
	shape
	Y int
}

func (*circle) isShape() {}

type shapeHolder struct {
	S shapeRef
}

func newShapeRegistry(t *testing.T) *registry.Registry {
	reg := registry.NewRegistry()

	reg.Define("A", registry.Abstract[shape]()).
		Member("x", registry.Field(func(s *shape) *int { return &s.X }))

	reg.Define("B", registry.New[circle]()).
		Extends(registry.Base(func(c *circle) *shape { return &c.shape })).
		Member("y", registry.Field(func(c *circle) *int { return &c.Y }))

	reg.Define("Holder", registry.New[shapeHolder]()).
		Member("s", registry.Field(func(h *shapeHolder) *shapeRef { return &h.S }))

	require.NoError(t, reg.Err())

	return reg
}

func TestEngine_Polymorphism(t *testing.T) {
	reg := newShapeRegistry(t)
	e := New(reg)

	h := &shapeHolder{S: &circle{shape: shape{X: 1}, Y: 2}}

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(h, buf))

	expected := `{
  "s": {
    "@class": "B",
    "x": 1,
    "y": 2
  }
}
`
	require.Equal(t, expected, buf.String())

	var back shapeHolder
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))

	c, ok := back.S.(*circle)
	require.True(t, ok)
	require.Equal(t, 1, c.X)
	require.Equal(t, 2, c.Y)
}

func TestEngine_MultipleInheritance(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	pc := &photoContact{}
	pc.Firstname = "Alice"
	pc.Age = 25
	pc.Image = "alice.png"
	pc.Width = 640

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(pc, buf))

	out := buf.String()

	// Base members come first, in the declared order of the bases.
	require.Less(t, strings.Index(out, `"firstname"`), strings.Index(out, `"image"`))

	var back photoContact
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))

	require.Equal(t, "Alice", back.Firstname)
	require.Equal(t, "alice.png", back.Image)
	require.Equal(t, uint(640), back.Width)
}

func TestEngine_UnknownMember(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Define("P", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type })).
		Member("number", registry.Field(func(p *phone) *string { return &p.Number }))

	var reported []*serial.Error
	e := New(reg, WithHandler(func(err *serial.Error) {
		reported = append(reported, err)
	}))

	doc := `{"type":"home","extra":"x","number":"1"}`

	var p phone
	err := e.Read(&p, strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown member: 'extra' in class 'P'")

	require.Len(t, reported, 1)
	require.False(t, reported[0].Fatal)

	require.Equal(t, "home", p.Type)
	require.Equal(t, "1", p.Number)
}

func TestEngine_RelaxedDialect(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Define("P", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type })).
		Member("number", registry.Field(func(p *phone) *string { return &p.Number }))

	e := New(reg)
	e.SetSyntax(serial.Relaxed)

	doc := "{\n  type: home  // phone\n  number: \"1-2\"\n}"

	var p phone
	require.NoError(t, e.Read(&p, strings.NewReader(doc)))

	require.Equal(t, "home", p.Type)
	require.Equal(t, "1-2", p.Number)
}

func TestEngine_CreatorMember(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	// Address is abstract: only the member creator can materialize it.
	doc := `{"firstname": "Bob", "address": {"street": "main", "city": "Lyon"}}`

	var c contact
	require.NoError(t, e.Read(&c, strings.NewReader(doc)))

	require.NotNil(t, c.Address)
	require.Equal(t, "Lyon", c.Address.City)
}

func TestEngine_AbstractClass(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	type wrap struct {
		A *address
	}

	reg.Define("Wrap", registry.New[wrap]()).
		Member("a", registry.Field(func(w *wrap) **address { return &w.A }))

	var w wrap
	err := e.Read(&w, strings.NewReader(`{"a": {"street": "x"}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't create instance of abstract class: Address")
}

type widget struct {
	Label string
}

type board struct {
	Widgets []*widget
}

func TestEngine_ContainerCreator(t *testing.T) {
	reg := registry.NewRegistry()

	reg.Define("Widget", registry.Abstract[widget]()).
		Member("label", registry.Field(func(w *widget) *string { return &w.Label }))

	reg.Define("Board", registry.New[board]()).
		Member("widgets", registry.ContainerCreator(
			func(b *board) *[]*widget { return &b.Widgets },
			func(*board) interface{} { return &widget{Label: "default"} },
		))

	require.NoError(t, reg.Err())

	e := New(reg)

	doc := `{"widgets": [{"label": "a"}, {}]}`

	var b board
	require.NoError(t, e.Read(&b, strings.NewReader(doc)))

	require.Len(t, b.Widgets, 2)
	require.Equal(t, "a", b.Widgets[0].Label)
	require.Equal(t, "default", b.Widgets[1].Label)
}

var formatVersion = "1"

type stamped struct {
	Name string
}

func TestEngine_StaticAndCustomMembers(t *testing.T) {
	reg := registry.NewRegistry()

	reg.Define("Stamped", registry.New[stamped]()).
		Member("version", registry.Static(&formatVersion)).
		Member("name", registry.Custom(
			func(s *stamped, dec serial.Decoder, token string) error {
				return dec.ReadValue(&s.Name, token)
			},
			func(s *stamped, enc serial.Encoder) error {
				return enc.WriteMember(strings.ToUpper(s.Name))
			},
		))

	require.NoError(t, reg.Err())

	e := New(reg)

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(&stamped{Name: "bob"}, buf))

	expected := "{\n  \"version\": \"1\",\n  \"name\": \"BOB\"\n}\n"
	require.Equal(t, expected, buf.String())

	var back stamped
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))
	require.Equal(t, "BOB", back.Name)
}

func TestEngine_Hooks(t *testing.T) {
	reg := registry.NewRegistry()

	readCount, writeCount := 0, 0

	reg.Define("P", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type })).
		PostRead(registry.Hook(func(*phone) { readCount++ })).
		PostWrite(registry.Hook(func(*phone) { writeCount++ }))

	e := New(reg)

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(&phone{Type: "home"}, buf))
	require.Equal(t, 1, writeCount)

	var p phone
	require.NoError(t, e.Read(&p, bytes.NewReader(buf.Bytes())))
	require.Equal(t, 1, readCount)
}

func TestEngine_Maps(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	type env struct {
		Labels map[string]string
		Nodes  map[string]*node
	}

	reg.Define("Env", registry.New[env]()).
		Member("labels", registry.Field(func(e *env) *map[string]string { return &e.Labels })).
		Member("nodes", registry.Field(func(e *env) *map[string]*node { return &e.Nodes }))

	doc := `{"labels": {"a": "1", "a": "2"}, "nodes": {"root": {"v": 7, "next": null}}}`

	var v env
	require.NoError(t, e.Read(&v, strings.NewReader(doc)))

	require.Equal(t, map[string]string{"a": "2"}, v.Labels)
	require.Equal(t, 7, v.Nodes["root"].V)

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(&v, buf))

	var back env
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))
	require.Equal(t, v.Labels, back.Labels)
	require.Equal(t, v.Nodes["root"].V, back.Nodes["root"].V)
}

func TestEngine_FixedArray(t *testing.T) {
	reg := registry.NewRegistry()

	type grid struct {
		Cells [3]int
	}

	reg.Define("Grid", registry.New[grid]()).
		Member("cells", registry.Field(func(g *grid) *[3]int { return &g.Cells }))

	e := New(reg)

	var g grid
	require.NoError(t, e.Read(&g, strings.NewReader(`{"cells": [1, 2, 3]}`)))
	require.Equal(t, [3]int{1, 2, 3}, g.Cells)

	err := e.Read(&g, strings.NewReader(`{"cells": [1, 2, 3, 4]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "array is too small")
}

type valNode struct {
	V int
}

type valGraph struct {
	Nodes    []valNode
	Favorite *valNode
}

func TestEngine_SliceFixup(t *testing.T) {
	reg := registry.NewRegistry()

	reg.Define("ValNode", registry.New[valNode]()).
		Member("v", registry.Field(func(n *valNode) *int { return &n.V }))

	reg.Define("ValGraph", registry.New[valGraph]()).
		Member("nodes", registry.Field(func(g *valGraph) *[]valNode { return &g.Nodes })).
		Member("favorite", registry.Field(func(g *valGraph) **valNode { return &g.Favorite }))

	require.NoError(t, reg.Err())

	e := New(reg, WithSharing())

	// The element tagged @id is referenced after the array was finalized: the
	// recorded slot must follow the element to its final address.
	doc := `{"nodes": [{"@id": "1", "v": 1}, {"v": 2}, {"v": 3}], "favorite": "@1"}`

	var g valGraph
	require.NoError(t, e.Read(&g, strings.NewReader(doc)))

	require.Len(t, g.Nodes, 3)
	require.Same(t, &g.Nodes[0], g.Favorite)
}

func TestEngine_ReadAny(t *testing.T) {
	e := New(registry.NewRegistry())
	e.SetSyntax(serial.Relaxed)

	doc := `{
	  // configuration
	  name: demo
	  sizes: [1, 2.5]
	  empty: null
	  on: true
	}`

	var v interface{}
	require.NoError(t, e.Read(&v, strings.NewReader(doc)))

	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "demo", m["name"])
	require.Equal(t, []interface{}{int64(1), 2.5}, m["sizes"])
	require.Nil(t, m["empty"])
	require.Equal(t, true, m["on"])
}

func TestEngine_Errors(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	var n node

	err := e.Read(&n, strings.NewReader(""))
	require.Contains(t, err.Error(), "no data")

	err = e.Read(&n, strings.NewReader(`{"v": 1, "next":`))
	require.Error(t, err)

	err = e.Read(&n, strings.NewReader(`{"v": "7"`))
	require.Contains(t, err.Error(), "premature end of file")

	err = e.Read(&n, strings.NewReader(`{"v": "abc"}`))
	require.Contains(t, err.Error(), "invalid value: abc for member 'v'")

	err = e.Read(&n, strings.NewReader(`{"@unknown": "1"}`))
	require.Contains(t, err.Error(), "expecting @id or @class before")

	err = e.Read(&n, strings.NewReader(`{"next": "@4"}`))
	require.Contains(t, err.Error(), "ID number expected after @")

	err = e.Read(&n, strings.NewReader(`{"@class": "Nope"}`))
	require.Contains(t, err.Error(), "unknown class: Nope")

	err = e.Read(&n, strings.NewReader(`{"next": [1]}`))
	require.Contains(t, err.Error(), "expecting {")

	err = e.Read(&n, strings.NewReader(`{"v" 1}`))
	require.Contains(t, err.Error(), "expecting comma")

	err = e.Read(&n, strings.NewReader(`{"v": "1" "next": null}`))
	require.Contains(t, err.Error(), "expecting , or } or ]")
}

func TestEngine_ErrorLine(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	doc := "{\n  \"v\": 1,\n  \"v\": \"abc\"\n}"

	var n node
	err := e.ReadNamed(&n, strings.NewReader(doc), "nodes.json", 1)
	require.Error(t, err)

	serr, ok := err.(*serial.Error)
	require.True(t, ok)
	require.Equal(t, serial.InvalidValue, serr.Code)
	require.Equal(t, "nodes.json", serr.Stream)
	require.Equal(t, 4, serr.Line)
	require.Contains(t, err.Error(), "in 'nodes.json'")
}

func TestEngine_Files(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")

	n := &node{V: 42}
	require.NoError(t, e.WriteFile(n, path))

	var back node
	require.NoError(t, e.ReadFile(&back, path))
	require.Equal(t, 42, back.V)

	err := e.ReadFile(&back, filepath.Join(dir, "missing.json"))
	require.Contains(t, err.Error(), "can't read file")

	err = e.WriteFile(n, filepath.Join(dir, "nope", "node.json"))
	require.Contains(t, err.Error(), "can't write file")
}

func TestEngine_BadWriter(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	err := e.Write(&node{V: 1}, &fake.BadWriter{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't write file")
}

func TestEngine_SharingOffDuplicates(t *testing.T) {
	reg := newNodeRegistry(t)
	e := New(reg)

	a := &node{V: 1}
	p := &pair{First: a, Second: a}

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(p, buf))

	require.NotContains(t, buf.String(), "@id")
	require.Equal(t, 2, strings.Count(buf.String(), "\"v\": 1"))

	var back pair
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))
	require.NotSame(t, back.First, back.Second)
}

func TestEngine_EmptyContainers(t *testing.T) {
	reg := newContactRegistry(t)
	e := New(reg)

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(&contact{}, buf))

	require.Contains(t, buf.String(), "\"phones\": []")

	var back contact
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))
	require.Empty(t, back.Phones)
}

func TestEngine_StringEscapes(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Define("P", registry.New[phone]()).
		Member("type", registry.Field(func(p *phone) *string { return &p.Type }))

	e := New(reg)

	p := &phone{Type: "a\"b\\c\nd\te"}

	buf := new(bytes.Buffer)
	require.NoError(t, e.Write(p, buf))

	require.Contains(t, buf.String(), `"a\"b\\c\nd\te"`)

	var back phone
	require.NoError(t, e.Read(&back, bytes.NewReader(buf.Bytes())))
	require.Equal(t, p.Type, back.Type)
}
