package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"jobtrack/api/internal/jobs"
)

var boardTemplate = template.Must(template.New("board").Funcs(template.FuncMap{
	"join": strings.Join,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"deref": deref,
}).Parse(boardHTML))

// BoardColumn is one stage column in the printed board.
type BoardColumn struct {
	Title string
	Color string
	Jobs  []jobs.Job
}

// TemplateData holds data for board template rendering
type TemplateData struct {
	Title       string
	OwnerName   string
	GeneratedAt time.Time
	Total       int
	Columns     []BoardColumn
}

// Columns groups items by stage in board order.
func Columns(items []jobs.Job) []BoardColumn {
	stages := jobs.Stages()
	cols := make([]BoardColumn, len(stages))
	for i, info := range stages {
		cols[i] = BoardColumn{Title: info.Title, Color: info.Color, Jobs: []jobs.Job{}}
		for _, job := range items {
			if job.Stage == info.ID {
				cols[i].Jobs = append(cols[i].Jobs, job)
			}
		}
	}
	return cols
}

// RenderBoardHTML renders the board template with provided data
func RenderBoardHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const boardHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; font-size: 10px; margin: 0; }
    h1 { font-size: 16px; margin: 0 0 4px; }
    .meta { color: #666; margin-bottom: 12px; }
    .board { display: flex; gap: 8px; }
    .column { flex: 1; border-top: 4px solid; padding: 4px; background: #f8fafc; }
    .column h2 { font-size: 12px; margin: 0 0 6px; }
    .card { background: #fff; border: 1px solid #e2e8f0; padding: 4px; margin-bottom: 4px; }
    .card .company { font-weight: bold; }
    .tags { color: #475569; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.OwnerName}} | {{.Total}} applications | {{formatDate .GeneratedAt "Jan 2, 2006"}}</div>
  <div class="board">
  {{range .Columns}}
    <div class="column" style="border-color: {{.Color}}">
      <h2>{{.Title}} ({{len .Jobs}})</h2>
      {{range .Jobs}}
      <div class="card">
        <div class="company">{{.CompanyName}}</div>
        <div>{{.Position}}</div>
        {{with .Location}}<div>{{deref .}}</div>{{end}}
        {{if .Tags}}<div class="tags">{{join .Tags ", "}}</div>{{end}}
      </div>
      {{end}}
    </div>
  {{end}}
  </div>
</body>
</html>`
