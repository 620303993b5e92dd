// This file contains the store subcommands: documents are parsed with the
// configured dialect and persisted under a name in a local database.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/objson/objson/store/docstore"
	"github.com/objson/objson/store/kv"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

func openStore(ctx *cli.Context) (*docstore.Store, func(), error) {
	eng, err := makeEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	db, err := kv.New(ctx.String("db"))
	if err != nil {
		return nil, nil, xerrors.Errorf("couldn't open database: %v", err)
	}

	s, err := docstore.New(db, eng)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return s, func() { db.Close() }, nil
}

func storeSaveAction(ctx *cli.Context, in io.Reader) error {
	if ctx.Args().Len() == 0 {
		return xerrors.New("missing document name")
	}

	name := ctx.Args().First()

	s, done, err := openStore(ctx)
	if err != nil {
		return err
	}

	defer done()

	eng, err := makeEngine(ctx)
	if err != nil {
		return err
	}

	r, stream := io.Reader(in), "stdin"

	if ctx.Args().Len() > 1 {
		path := ctx.Args().Get(1)

		f, err := os.Open(path)
		if err != nil {
			return xerrors.Errorf("couldn't open '%s': %v", path, err)
		}

		defer f.Close()

		r, stream = f, path
	}

	var doc interface{}

	err = eng.ReadNamed(&doc, r, stream, 1)
	if err != nil {
		return xerrors.Errorf("invalid document: %v", err)
	}

	err = s.Save(name, doc)
	if err != nil {
		return err
	}

	return nil
}

func storeLoadAction(ctx *cli.Context, out io.Writer) error {
	if ctx.Args().Len() == 0 {
		return xerrors.New("missing document name")
	}

	s, done, err := openStore(ctx)
	if err != nil {
		return err
	}

	defer done()

	var doc interface{}

	err = s.Load(ctx.Args().First(), &doc)
	if err != nil {
		return err
	}

	eng, err := makeEngine(ctx)
	if err != nil {
		return err
	}

	err = eng.Write(doc, out)
	if err != nil {
		return xerrors.Errorf("couldn't write document: %v", err)
	}

	return nil
}

func storeListAction(ctx *cli.Context, out io.Writer) error {
	s, done, err := openStore(ctx)
	if err != nil {
		return err
	}

	defer done()

	names, err := s.List()
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Fprintln(out, name)
	}

	return nil
}
