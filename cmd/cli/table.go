// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// newTable returns a borderless, tab padded table writer.
func newTable(writer io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

// printTable renders rows under an upper-cased header line.
func printTable(writer io.Writer, header []string, rows [][]string) {
	table := newTable(writer)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.AppendBulk(rows)
	table.Render()
}

// printFields renders name/value pairs without a header,
// with the names suffixed by a colon.
func printFields(writer io.Writer, fields [][]string) {
	table := newTable(writer)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, f := range fields {
		table.Append([]string{f[0] + ":", f[1]})
	}
	table.Render()
}
