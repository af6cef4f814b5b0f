package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// maxFailuresShown keeps the failure table readable on large sheets.
const maxFailuresShown = 50

func printSummary(w io.Writer, s *core.ImportSummary) {
	status := color.New(color.FgGreen, color.Bold)
	if s.Errors > 0 {
		status = color.New(color.FgYellow, color.Bold)
	}
	status.Fprintf(w, "✓ Imported %d feeds from %s\n", s.Imported, s.Source)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Import ID", "Rows", "Imported", "Errors", "Skipped", "Replaced", "Duration"})
	table.Append([]string{
		s.ImportID,
		strconv.Itoa(s.TotalRows),
		strconv.Itoa(s.Imported),
		strconv.Itoa(s.Errors),
		strconv.Itoa(s.Skipped),
		strconv.FormatInt(s.Replaced, 10),
		s.Duration.Round(time.Millisecond).String(),
	})
	table.Render()

	if len(s.Failures) == 0 {
		return
	}

	color.New(color.FgYellow).Fprintf(w, "\nRejected feeds\n")
	failures := tablewriter.NewWriter(w)
	failures.SetHeader([]string{"Line", "Name", "Code", "Reason"})
	failures.SetAutoWrapText(false)
	for i, f := range s.Failures {
		if i == maxFailuresShown {
			fmt.Fprintf(w, "... and %d more\n", len(s.Failures)-maxFailuresShown)
			break
		}
		failures.Append([]string{strconv.Itoa(f.Line), f.Name, f.Code, f.Reason})
	}
	failures.Render()
}

func printStats(w io.Writer, s *core.FeedStats) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "Public feeds\n")

	last := "never"
	if s.LastUpdate != nil {
		last = s.LastUpdate.Local().Format("2006-01-02 15:04:05")
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Total", strconv.Itoa(s.Total)},
		{"Dog", strconv.Itoa(s.DogFeeds)},
		{"Cat", strconv.Itoa(s.CatFeeds)},
		{"Both", strconv.Itoa(s.BothFeeds)},
		{"Energy mean (kcal/kg)", formatFloat(s.EnergyMean)},
		{"Energy median (kcal/kg)", formatFloat(s.EnergyMedian)},
		{"Protein mean (%)", formatFloat(s.ProteinMean)},
		{"Protein median (%)", formatFloat(s.ProteinMedian)},
		{"Last update", last},
	})
	table.Render()
}

func printHistory(w io.Writer, runs []core.ImportRun) {
	if len(runs) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No imports yet")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"When", "Source", "Rows", "Imported", "Errors", "Replaced", "ID"})
	for _, r := range runs {
		table.Append([]string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			strconv.Itoa(r.TotalRows),
			strconv.Itoa(r.Imported),
			strconv.Itoa(r.Errors),
			strconv.FormatInt(r.Replaced, 10),
			r.ID,
		})
	}
	table.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
