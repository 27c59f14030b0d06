// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
)

type metadata struct {
	file    string
	verbose bool
	w       io.Writer
	e       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	logging := logger.Configuration{
		Directory: ".",
		File:      "grid-dumpdb.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logging); nil != err {
		exitwithstatus.Message("logger setup failed with error: %s", err)
	}
	defer logger.Finalise()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		exitwithstatus.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "grid-dumpdb"
	app.Usage = "inspect the leveldb store of a cache"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "file, f",
			Value: "",
			Usage: "*leveldb store `DIRECTORY`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "list",
			Usage:     "list stored entries",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, c",
					Value: 10,
					Usage: " maximum entries to show `COUNT`",
				},
				cli.BoolFlag{
					Name:  "expired, x",
					Usage: " also show expired entries",
				},
			},
			Action: runList,
		},
		{
			Name:      "count",
			Usage:     "count stored and expired entries",
			ArgsUsage: " ",
			Action:    runCount,
		},
		{
			Name:      "purge",
			Usage:     "delete expired entries",
			ArgsUsage: " ",
			Action:    runPurge,
		},
		{
			Name:      "version",
			Usage:     "display grid-dumpdb version",
			ArgsUsage: " ",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		file := c.GlobalString("file")
		if "" == file {
			return fmt.Errorf("missing store: --file=DIRECTORY")
		}
		app.Metadata = map[string]interface{}{
			"config": &metadata{
				file:    file,
				verbose: c.GlobalBool("verbose"),
				w:       app.Writer,
				e:       app.ErrWriter,
			},
		}
		return nil
	}

	return app
}
