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
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/sha3"

	"github.com/karol11/ltm-go/codec/bcml"
	"github.com/karol11/ltm-go/codec/cml"
	"github.com/karol11/ltm-go/dom"
	"github.com/karol11/ltm-go/store"
)

var (
	binaryFlag = cli.BoolFlag{
		Name:  "binary",
		Usage: "serialize via codec/bcml instead of the default codec/cml text format",
	}
	persistFlag = cli.StringFlag{
		Name:  "persist",
		Usage: "content-address the serialized output into a goleveldb directory instead of printing it",
		Value: "",
	}
)

var DumpCmd = cli.Command{
	Action:    dump,
	Name:      "dump",
	Usage:     "serializes a scenario via codec/cml or codec/bcml, optionally persisting to store",
	ArgsUsage: "<chain|backref|escape|self-backref|shared-leaf>",
	Flags: []cli.Flag{
		&binaryFlag,
		&persistFlag,
	},
}

func dump(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("ltmtool dump: expected exactly one scenario name")
	}
	name := context.Args().Get(0)
	if name == "orphan" {
		return fmt.Errorf("ltmtool dump: scenario %q has no graph to serialize, use 'build orphan' instead", name)
	}

	pool := dom.NewPool(64)
	root, err := buildScenario(name, pool)
	if err != nil {
		return err
	}

	binary := context.Bool(binaryFlag.Name)
	var buf bytes.Buffer
	if binary {
		if err := bcml.NewWriter(&buf).Write(root); err != nil {
			return fmt.Errorf("ltmtool dump: bcml encode failed: %w", err)
		}
	} else {
		if err := cml.NewWriter(&buf).Write(root); err != nil {
			return fmt.Errorf("ltmtool dump: cml encode failed: %w", err)
		}
	}

	if err := verifyRoundTrip(binary, buf.Bytes(), pool); err != nil {
		return fmt.Errorf("ltmtool dump: %w", err)
	}

	persistDir := context.String(persistFlag.Name)
	if persistDir == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	db, err := store.Open(persistDir)
	if err != nil {
		return fmt.Errorf("ltmtool dump: opening store at %s: %w", persistDir, err)
	}
	defer db.Close()

	sum := sha3.Sum256(buf.Bytes())
	key := []byte(hex.EncodeToString(sum[:]))
	if err := db.Put(key, buf.Bytes()); err != nil {
		return fmt.Errorf("ltmtool dump: persisting to store: %w", err)
	}
	fmt.Printf("persisted %d bytes under key %s\n", buf.Len(), key)
	return nil
}

// verifyRoundTrip parses back what was just written, catching a codec
// regression before anything gets persisted rather than trusting the
// writer blindly.
func verifyRoundTrip(binary bool, data []byte, pool *dom.Pool) error {
	if binary {
		reader, err := bcml.NewReader(schemaRegistry(), pool, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("reading back bcml output: %w", err)
		}
		_, err = reader.Parse()
		if err != nil {
			return fmt.Errorf("parsing back bcml output: %w", err)
		}
		return nil
	}
	if _, err := cml.NewReader(schemaRegistry(), pool).Parse(string(data)); err != nil {
		return fmt.Errorf("parsing back cml output: %w", err)
	}
	return nil
}
