package main

import (
	"flag"

	"github.com/gitpress-io/gitpress/devserver"
)

func runDevServer(args []string) error {
	fs := flag.NewFlagSet("devserver", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:3000", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	srv, err := devserver.New(devserver.Config{Addr: *addr, Root: root})
	if err != nil {
		return err
	}
	return srv.Start()
}
