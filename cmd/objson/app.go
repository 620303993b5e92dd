// This file contains the command definitions and the configuration file
// support of the tool. Defaults for the syntax mask and the indentation come
// from an optional YAML file and can be overridden by flags.

package main

import (
	"io"
	"os"
	"strings"

	"github.com/objson/objson/serial"
	"github.com/objson/objson/serial/engine"
	"github.com/objson/objson/serial/registry"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// config is the YAML layout of the configuration file.
type config struct {
	Syntax []string `yaml:"syntax"`
	Indent struct {
		Char  string `yaml:"char"`
		Count *int   `yaml:"count"`
	} `yaml:"indent"`
}

func loadConfig(path string) (config, error) {
	cfg := config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, xerrors.Errorf("couldn't read config: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("couldn't decode config: %v", err)
	}

	return cfg, nil
}

// parseSyntax resolves a list of relaxation names into the syntax mask.
func parseSyntax(names []string) (serial.Syntax, error) {
	if len(names) == 0 {
		return serial.DefaultSyntax, nil
	}

	mask := serial.Strict

	for _, name := range names {
		switch strings.ToLower(name) {
		case "strict":
		case "comments":
			mask |= serial.Comments
		case "noquotes":
			mask |= serial.NoQuotes
		case "nocommas":
			mask |= serial.NoCommas
		case "newlines":
			mask |= serial.Newlines
		case "relaxed":
			mask |= serial.Relaxed
		default:
			return 0, xerrors.Errorf("unknown syntax option '%s'", name)
		}
	}

	return mask, nil
}

func buildApp(in io.Reader, out io.Writer) *cli.App {
	app := &cli.App{
		Name:  "objson",
		Usage: "check and reformat documents written in relaxed JSON dialects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path of the YAML configuration file",
				Value: defaultConfigPath(),
			},
			&cli.StringSliceFlag{
				Name:  "syntax",
				Usage: "accepted relaxations: comments, noquotes, nocommas, newlines, relaxed, strict",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "parse a document and report the first error",
				ArgsUsage: "[file]",
				Action: func(ctx *cli.Context) error {
					return checkAction(ctx, in)
				},
			},
			{
				Name:  "store",
				Usage: "keep documents in a local database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "path of the database file",
						Required: true,
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:      "save",
						Usage:     "parse a document and store it under a name",
						ArgsUsage: "name [file]",
						Action: func(ctx *cli.Context) error {
							return storeSaveAction(ctx, in)
						},
					},
					{
						Name:      "load",
						Usage:     "print a stored document as strict JSON",
						ArgsUsage: "name",
						Action: func(ctx *cli.Context) error {
							return storeLoadAction(ctx, out)
						},
					},
					{
						Name:  "list",
						Usage: "list the stored documents",
						Action: func(ctx *cli.Context) error {
							return storeListAction(ctx, out)
						},
					},
				},
			},
			{
				Name:      "fmt",
				Usage:     "rewrite a document as strict JSON",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "indent-char",
						Usage: "indentation character",
					},
					&cli.IntFlag{
						Name:  "indent-count",
						Usage: "repetitions of the indentation character",
						Value: 2,
					},
				},
				Action: func(ctx *cli.Context) error {
					return fmtAction(ctx, in, out)
				},
			},
		},
	}

	app.Setup()

	return app
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".objson.yml"
	}

	return home + "/.objson.yml"
}

// makeEngine builds an engine from the configuration file and the flags,
// flags winning.
func makeEngine(ctx *cli.Context) (*engine.Engine, error) {
	cfg, err := loadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	names := cfg.Syntax
	if flags := ctx.StringSlice("syntax"); len(flags) > 0 {
		names = flags
	}

	mask, err := parseSyntax(names)
	if err != nil {
		return nil, err
	}

	eng := engine.New(registry.NewRegistry())
	eng.SetSyntax(mask)

	tabChar := byte(' ')
	if cfg.Indent.Char != "" {
		tabChar = cfg.Indent.Char[0]
	}
	if s := ctx.String("indent-char"); s != "" {
		tabChar = s[0]
	}

	count := 2
	if cfg.Indent.Count != nil {
		count = *cfg.Indent.Count
	}
	if ctx.IsSet("indent-count") {
		count = ctx.Int("indent-count")
	}

	eng.SetIndent(tabChar, count)

	return eng, nil
}

func openInput(ctx *cli.Context, in io.Reader) (io.Reader, string, func(), error) {
	if ctx.Args().Len() == 0 {
		return in, "stdin", func() {}, nil
	}

	path := ctx.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, xerrors.Errorf("couldn't open '%s': %v", path, err)
	}

	return f, path, func() { f.Close() }, nil
}

func checkAction(ctx *cli.Context, in io.Reader) error {
	eng, err := makeEngine(ctx)
	if err != nil {
		return err
	}

	r, name, done, err := openInput(ctx, in)
	if err != nil {
		return err
	}

	defer done()

	var doc interface{}

	err = eng.ReadNamed(&doc, r, name, 1)
	if err != nil {
		return xerrors.Errorf("invalid document: %v", err)
	}

	return nil
}

func fmtAction(ctx *cli.Context, in io.Reader, out io.Writer) error {
	eng, err := makeEngine(ctx)
	if err != nil {
		return err
	}

	r, name, done, err := openInput(ctx, in)
	if err != nil {
		return err
	}

	defer done()

	var doc interface{}

	err = eng.ReadNamed(&doc, r, name, 1)
	if err != nil {
		return xerrors.Errorf("invalid document: %v", err)
	}

	err = eng.Write(doc, out)
	if err != nil {
		return xerrors.Errorf("couldn't write document: %v", err)
	}

	return nil
}
