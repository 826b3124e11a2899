package web

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/dataclean/internal/history"
)

const reportStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse}th,td{padding:.35rem .75rem;border-bottom:1px solid #e5e7eb;text-align:left}
th{color:#6b7280;font-weight:500}.succeeded{color:#047857}.failed{color:#b91c1c}.running{color:#b45309}
code{background:#f3f4f6;padding:.1rem .3rem;border-radius:3px}`

// RunReport renders a standalone HTML page describing one run.
func RunReport(run *history.Run) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &htmlWriter{w: w}

		p.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>Run ")
		p.text(run.ID)
		p.raw("</title><style>" + reportStyle + "</style></head><body>")

		p.raw("<h1>CSV Validation Run</h1><table>")
		p.row("Run ID", "<code>"+templ.EscapeString(run.ID)+"</code>")
		p.row("Status", fmt.Sprintf("<span class=\"%s\">%s</span>",
			templ.EscapeString(string(run.Status)), templ.EscapeString(string(run.Status))))
		p.row("Started", templ.EscapeString(run.StartedAt.UTC().Format(time.RFC3339)))
		if run.FinishedAt != nil {
			p.row("Finished", templ.EscapeString(run.FinishedAt.UTC().Format(time.RFC3339)))
			p.row("Duration", templ.EscapeString(run.Duration().Round(time.Millisecond).String()))
		}
		if run.FailedStage != "" {
			p.row("Failed stage", templ.EscapeString(run.FailedStage))
			p.row("Error", templ.EscapeString(run.Error))
			p.row("Error code", "<code>"+templ.EscapeString(run.ErrorCode)+"</code>")
		}
		p.raw("</table>")

		p.raw("<h2>Rows</h2>")
		if run.Stats == nil {
			p.raw("<p>No stats were recorded for this run.</p>")
		} else {
			p.raw("<table>")
			p.row("Total (including header)", strconv.Itoa(run.Stats.TotalRows))
			p.row("Evaluated", strconv.Itoa(run.Stats.DataRows))
			p.row("Clean", strconv.Itoa(run.Stats.CleanRows))
			p.row("Rejected", strconv.Itoa(run.Stats.RejectedRows))
			p.raw("</table>")
		}

		if run.CleanedObject != "" || run.RejectsObject != "" {
			p.raw("<h2>Published objects</h2><table>")
			if run.CleanedObject != "" {
				p.row("Cleaned file", "<code>"+templ.EscapeString(run.CleanedObject)+"</code>")
			}
			if run.RejectsObject != "" {
				p.row("Rejects report", "<code>"+templ.EscapeString(run.RejectsObject)+"</code>")
			}
			p.raw("</table>")
		}

		p.raw("</body></html>")
		return p.err
	})
}

// htmlWriter accumulates the first write error so the component body
// reads top to bottom.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (p *htmlWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *htmlWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

// row writes a two-column row; value must already be escaped.
func (p *htmlWriter) row(label, value string) {
	p.raw("<tr><th>")
	p.text(label)
	p.raw("</th><td>" + value + "</td></tr>")
}
