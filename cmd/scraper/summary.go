package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aluiziolira/book-converter/config"
	"github.com/aluiziolira/book-converter/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printSummary(w io.Writer, result *models.RunResult, written int, cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Scrape complete")
	t.AppendHeader(table.Row{"Metric", "Value"})

	t.AppendRows([]table.Row{
		{"Pages requested", result.PagesRequested},
		{"Pages processed", result.PagesProcessed},
		{"Pages skipped", result.PagesSkipped},
		{"Books extracted", len(result.Books)},
		{"Books written", written},
		{"Fragments skipped", result.FragmentsSkipped},
		{"Retries", result.RetryCount},
	})
	if len(result.ErrorsByType) > 0 {
		t.AppendRow(table.Row{"Errors by kind", formatErrors(result.ErrorsByType)})
	}
	switch {
	case result.Cancelled:
		t.AppendRow(table.Row{"Status", "cancelled"})
	case result.StoppedEarly:
		t.AppendRow(table.Row{"Status", "catalogue ended early"})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Duration", result.Duration().Round(time.Millisecond)},
		{"Output file", fmt.Sprintf("%s (%s)", cfg.OutputFile, cfg.OutputFormat)},
	})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// formatErrors renders counts sorted by kind so the summary is stable.
func formatErrors(byKind map[string]int) string {
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", kind, byKind[kind])
	}
	return strings.Join(parts, " ")
}
