// Package main provides the objson command line tool. It checks and
// reformats documents written in the accepted JSON dialects: a relaxed
// document goes in, strict JSON comes out.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Printf("%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, os.Stdin, os.Stdout)
}

func runWithCfg(args []string, in io.Reader, out io.Writer) error {
	app := buildApp(in, out)

	err := app.Run(args)
	if err != nil {
		return err
	}

	return nil
}
