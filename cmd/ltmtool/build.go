// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/karol11/ltm-go/codec/cml"
	"github.com/karol11/ltm-go/dom"
)

var BuildCmd = cli.Command{
	Action:    build,
	Name:      "build",
	Usage:     "constructs one of spec.md §8's concrete scenarios and prints the resulting graph",
	ArgsUsage: "<chain|backref|escape|self-backref|shared-leaf|orphan>",
}

func build(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("ltmtool build: expected exactly one scenario name")
	}
	name := context.Args().Get(0)
	pool := dom.NewPool(64)

	if name == "orphan" {
		fmt.Println(runOrphanDemo(pool))
		return nil
	}

	root, err := buildScenario(name, pool)
	if err != nil {
		return err
	}
	return cml.NewWriter(os.Stdout).Write(root)
}
