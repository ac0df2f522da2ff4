package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"jobtrack/api/internal/board"
	"jobtrack/api/internal/jobs"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
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

// renderBoard prints one row per application, grouped by column in stage
// order, followed by a per-stage count line.
func renderBoard(owner string, snapshot board.Snapshot, colorize bool) string {
	var b strings.Builder
	title := fmt.Sprintf("%s: %d application(s)", owner, snapshot.Total)
	if colorize {
		title = ansiBlue + title + ansiReset
	}
	b.WriteString(title)
	b.WriteString("\n")

	if snapshot.Total == 0 {
		b.WriteString("Board is empty. Run `jobtrack seed` to add demo applications.")
		return b.String()
	}

	rows := make([][]string, 0, snapshot.Total)
	counts := make([]string, 0, len(snapshot.Columns))
	for _, col := range snapshot.Columns {
		counts = append(counts, fmt.Sprintf("%s %d", col.Title, len(col.Jobs)))
		for _, job := range col.Jobs {
			rows = append(rows, []string{
				job.ID,
				job.CompanyName,
				job.Position,
				stageLabel(job, colorize),
				string(job.Status),
				strings.Join(job.Tags, ", "),
				job.AppliedDate.Format("2006-01-02"),
			})
		}
	}
	b.WriteString(renderTable(
		[]string{"ID", "Company", "Position", "Stage", "Status", "Tags", "Applied"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	b.WriteString("\n")
	b.WriteString(strings.Join(counts, " | "))

	if snapshot.LastError != nil {
		msg := "error: " + snapshot.LastError.Message
		if colorize {
			msg = ansiRed + msg + ansiReset
		}
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return b.String()
}

func stageLabel(job jobs.Job, colorize bool) string {
	label := job.Stage.Title()
	if job.RejectedFromStage != nil {
		label = fmt.Sprintf("%s (from %s)", label, job.RejectedFromStage.Title())
	}
	if !colorize {
		return label
	}
	switch {
	case job.Stage == jobs.StageRejected:
		return ansiRed + label + ansiReset
	case job.Stage == jobs.StageOffer:
		return ansiGreen + label + ansiReset
	case job.Stage == jobs.StageFinal:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
