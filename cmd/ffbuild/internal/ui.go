package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const rule = "=============================================================="

// printHeader prints a section title between rules.
func printHeader(w io.Writer, lines ...string) {
	fmt.Fprintln(w, color.Cyan.Sprint(rule))
	for _, l := range lines {
		fmt.Fprintln(w, color.Bold.Sprint(l))
	}
	fmt.Fprintln(w, color.Cyan.Sprint(rule))
}

// printBlock prints lines followed by a rule.
func printBlock(w io.Writer, lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w, color.Cyan.Sprint(rule))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.Success.Sprintf(format, args...))
}

// renderTable renders rows in the rounded style, keeping the header text
// as given.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
