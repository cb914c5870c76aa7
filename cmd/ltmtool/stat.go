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
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	dto "github.com/prometheus/client_model/go"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli/v2"

	"github.com/karol11/ltm-go/ltm/ltmstat"
)

var StatCmd = cli.Command{
	Action: stat,
	Name:   "stat",
	Usage:  "prints live ltmstat counters and system-wide memory usage in a table",
}

func stat(context *cli.Context) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})

	for _, row := range []struct {
		name string
		c    metricReader
	}{
		{"retains_total", ltmstat.Retains},
		{"releases_total", ltmstat.Releases},
		{"finalizations_total", ltmstat.Finalizations},
		{"weak_block_materializations_total", ltmstat.WeakBlockMaterializations},
		{"transaction_depth", ltmstat.TransactionDepth},
		{"redirections_applied_total", ltmstat.RedirectionsApplied},
		{"clones_aborted_total", ltmstat.ClonesAborted},
	} {
		table.Append([]string{row.name, formatMetric(row.c)})
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		table.Append([]string{"system_memory_used_bytes", strconv.FormatUint(vm.Used, 10)})
		table.Append([]string{"system_memory_total_bytes", strconv.FormatUint(vm.Total, 10)})
	}

	table.Render()
	return nil
}

// metricReader is the subset of a prometheus Counter/Gauge's API needed to
// read back its current value, matching ltmstat's own test helper.
type metricReader interface {
	Write(*dto.Metric) error
}

func formatMetric(c metricReader) string {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return "?"
	}
	if m.Counter != nil {
		return strconv.FormatFloat(m.Counter.GetValue(), 'f', 0, 64)
	}
	return strconv.FormatFloat(m.Gauge.GetValue(), 'f', 0, 64)
}
