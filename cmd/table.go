package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type align int

const (
	alignLeft align = iota
	alignRight
)

// renderTable draws rows under headers. Missing cells render empty.
func renderTable(headers []string, rows [][]string, aligns ...align) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	toRow := func(cells []string) table.Row {
		r := make(table.Row, len(headers))
		for i := range headers {
			r[i] = ""
			if i < len(cells) {
				r[i] = cells[i]
			}
		}
		return r
	}

	tw.AppendHeader(toRow(headers))
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		a := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			a = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: a, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
