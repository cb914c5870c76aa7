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
	"github.com/karol11/ltm-go/ltm"
)

var CloneCmd = cli.Command{
	Action:    cloneScenario,
	Name:      "clone",
	Usage:     "builds a scenario, deep-copies its root, and prints both graphs",
	ArgsUsage: "<chain|backref|escape|self-backref|shared-leaf>",
}

func cloneScenario(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("ltmtool clone: expected exactly one scenario name")
	}
	name := context.Args().Get(0)
	if name == "orphan" {
		return fmt.Errorf("ltmtool clone: scenario %q has nothing to clone, use 'build orphan' instead", name)
	}

	pool := dom.NewPool(64)
	root, err := buildScenario(name, pool)
	if err != nil {
		return err
	}
	original := ltm.NewOwning[dom.Node](root)
	defer original.Release()

	cloned, err := ltm.DeepCopy[dom.Node](original.Get())
	if err != nil {
		return fmt.Errorf("ltmtool clone: deep copy failed: %w", err)
	}
	defer cloned.Release()

	fmt.Println("--- original ---")
	if err := cml.NewWriter(os.Stdout).Write(original.Get()); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("--- clone ---")
	if err := cml.NewWriter(os.Stdout).Write(cloned.Get()); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
