// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command ltmtool is a small demonstration CLI over the ltm/dom/codec
// stack, grounded on database/mpt/tool's urfave/cli/v2 App/Command layout.
//
// Run using
//
//	go run ./cmd/ltmtool <command> <flags>
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/urfave/cli/v2"
)

var sentryDsnFlag = cli.StringFlag{
	Name:  "sentry-dsn",
	Usage: "if set, reports the fail-fast counter-overflow fault to this Sentry DSN before exiting",
	Value: "",
}

func main() {
	app := &cli.App{
		Name:      "ltmtool",
		Usage:     "LTM lifetime-manager toolbox",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags: []cli.Flag{
			&sentryDsnFlag,
		},
		Before: func(context *cli.Context) error {
			dsn := context.String(sentryDsnFlag.Name)
			if dsn == "" {
				return nil
			}
			return sentry.Init(sentry.ClientOptions{Dsn: dsn})
		},
		Commands: []*cli.Command{
			&BuildCmd,
			&CloneCmd,
			&DumpCmd,
			&StatCmd,
		},
	}

	defer reportFatalFault()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// reportFatalFault recovers a panic raised by the ltm core's one
// documented fail-fast fault (counter overflow, spec.md §7), reports it to
// Sentry if configured, and re-panics so the process still exits non-zero
// the way an unrecovered panic always has -- this is the only place in the
// module where anything observes that fault; the core contract itself
// treats it as unrecoverable.
func reportFatalFault() {
	r := recover()
	if r == nil {
		return
	}
	if sentry.CurrentHub().Client() != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
	}
	panic(r)
}
