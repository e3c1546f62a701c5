package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutputFormat(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case outputAuto, outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want auto, table, or json)", value)
	}
}

// wantJSON reports whether results should be encoded as JSON. In auto mode
// a terminal gets tables and anything else gets JSON.
func (c *commandContext) wantJSON(cmd *cobra.Command) bool {
	switch c.outputFormat() {
	case outputJSON:
		return true
	case outputTable:
		return false
	default:
		return !isTerminal(cmd.OutOrStdout())
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func printTable(cmd *cobra.Command, headers []string, rows [][]string, aligns []columnAlignment) {
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
}
