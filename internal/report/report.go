// Package report renders the end-of-run summary table.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"SalesScanner/internal/usecase"
)

// Render writes the stage and sink tables for a run to w.
func Render(w io.Writer, runID string, rep usecase.Report) {
	stages := table.NewWriter()
	stages.SetOutputMirror(w)
	stages.SetStyle(table.StyleLight)
	stages.SetTitle(fmt.Sprintf("Run %s (%s)", runID, rep.Duration.Round(time.Millisecond)))
	stages.AppendHeader(table.Row{"Stage", "Succeeded", "Failed", "Dropped", "Discarded", "Duration"})
	for _, s := range rep.Stages {
		stages.AppendRow(table.Row{
			s.Stage,
			s.Succeeded,
			s.Failed,
			s.Dropped,
			s.Discarded,
			s.Duration.Round(time.Millisecond),
		})
	}
	stages.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	stages.Render()

	if len(rep.SinkRows) == 0 && len(rep.SinkFailures) == 0 {
		return
	}

	sinks := table.NewWriter()
	sinks.SetOutputMirror(w)
	sinks.SetStyle(table.StyleLight)
	sinks.AppendHeader(table.Row{"Sink", "Rows", "Failures"})
	for _, name := range sinkNames(rep) {
		sinks.AppendRow(table.Row{name, rep.SinkRows[name], rep.SinkFailures[name]})
	}
	sinks.AppendFooter(table.Row{"sold events", rep.SoldRows, ""})
	sinks.Render()
}

func sinkNames(rep usecase.Report) []string {
	seen := map[string]struct{}{}
	for name := range rep.SinkRows {
		seen[name] = struct{}{}
	}
	for name := range rep.SinkFailures {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
