package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-flights/export"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show FILE.csv",
	Short: "Prints a structured export as a table.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		header, err := export.ReadHeader(path)
		if err != nil {
			return err
		}
		rows, err := export.ReadRows(path)
		if err != nil {
			return err
		}

		t := newTable()
		headerRow := make(table.Row, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		t.AppendHeader(headerRow)
		for _, row := range rows {
			r := make(table.Row, len(row))
			for i, v := range row {
				r[i] = v
			}
			t.AppendRow(r)
		}
		t.Render()

		if info, err := os.Stat(path); err == nil {
			fmt.Printf("%d flights, %s, written %s\n", len(rows), humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
		}
		return nil
	},
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
