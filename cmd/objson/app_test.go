package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/objson/objson/serial"
	"github.com/stretchr/testify/require"
)

func TestParseSyntax(t *testing.T) {
	mask, err := parseSyntax(nil)
	require.NoError(t, err)
	require.Equal(t, serial.DefaultSyntax, mask)

	mask, err = parseSyntax([]string{"comments", "nocommas"})
	require.NoError(t, err)
	require.Equal(t, serial.Comments|serial.NoCommas, mask)

	mask, err = parseSyntax([]string{"relaxed"})
	require.NoError(t, err)
	require.Equal(t, serial.Relaxed, mask)

	mask, err = parseSyntax([]string{"strict"})
	require.NoError(t, err)
	require.Equal(t, serial.Strict, mask)

	_, err = parseSyntax([]string{"nope"})
	require.EqualError(t, err, "unknown syntax option 'nope'")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Empty(t, cfg.Syntax)

	path := filepath.Join(t.TempDir(), "config.yml")

	data := "syntax:\n  - relaxed\nindent:\n  char: \"\\t\"\n  count: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"relaxed"}, cfg.Syntax)
	require.Equal(t, "\t", cfg.Indent.Char)
	require.Equal(t, 1, *cfg.Indent.Count)

	require.NoError(t, os.WriteFile(path, []byte(":\tnot yaml"), 0644))

	_, err = loadConfig(path)
	require.Error(t, err)
}

func TestApp_Fmt(t *testing.T) {
	in := strings.NewReader("{\n  name: demo  // comment\n  on: true\n}")
	out := new(bytes.Buffer)

	cfgPath := filepath.Join(t.TempDir(), "none.yml")

	err := runWithCfg([]string{
		"objson", "--config", cfgPath, "--syntax", "relaxed", "fmt",
	}, in, out)
	require.NoError(t, err)

	require.Contains(t, out.String(), "\"name\": \"demo\"")
	require.Contains(t, out.String(), "\"on\": true")
}

func TestApp_Store(t *testing.T) {
	dir := t.TempDir()

	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"a": "1"}`), 0644))

	db := filepath.Join(dir, "docs.db")
	cfgPath := filepath.Join(dir, "none.yml")

	err := runWithCfg([]string{
		"objson", "--config", cfgPath, "store", "--db", db, "save", "first", doc,
	}, nil, new(bytes.Buffer))
	require.NoError(t, err)

	out := new(bytes.Buffer)

	err = runWithCfg([]string{
		"objson", "--config", cfgPath, "store", "--db", db, "list",
	}, nil, out)
	require.NoError(t, err)
	require.Equal(t, "first\n", out.String())

	out.Reset()

	err = runWithCfg([]string{
		"objson", "--config", cfgPath, "store", "--db", db, "load", "first",
	}, nil, out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "\"a\": \"1\"")

	err = runWithCfg([]string{
		"objson", "--config", cfgPath, "store", "--db", db, "load", "missing",
	}, nil, out)
	require.Error(t, err)
}

func TestApp_CheckFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"a": "1"}`), 0644))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": oops}`), 0644))

	cfgPath := filepath.Join(dir, "none.yml")

	err := runWithCfg([]string{
		"objson", "--config", cfgPath, "check", good,
	}, nil, new(bytes.Buffer))
	require.NoError(t, err)

	err = runWithCfg([]string{
		"objson", "--config", cfgPath, "check", bad,
	}, nil, new(bytes.Buffer))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid document")

	err = runWithCfg([]string{
		"objson", "--config", cfgPath, "check", filepath.Join(dir, "missing.json"),
	}, nil, new(bytes.Buffer))
	require.Error(t, err)
}
