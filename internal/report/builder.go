package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/threadfeed/internal/types"
)

// Builder renders run reports for email
type Builder struct {
	template *template.Template
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{template: tmpl}, nil
}

// Rendered is a report ready for sending
type Rendered struct {
	Subject   string
	HTMLBody  string
	PlainBody string
}

// ReportData is the template data structure
type ReportData struct {
	Title    string
	Date     string
	RunID    string
	ThreadID string
	Status   string
	Reason   string
	Sent     int
	Total    int
	Last     string
	Error    string
	Duration string
	Messages []MessageData
}

// MessageData is one sent message in the report template
type MessageData struct {
	Seq     int
	Time    string
	Content string
}

// Build renders r and the messages it sent
func (b *Builder) Build(r *types.Report, sends []types.SentMessage) (*Rendered, error) {
	if r == nil {
		return nil, fmt.Errorf("no report to render")
	}

	data := ReportData{
		Title:    fmt.Sprintf("threadfeed run: %s", status(r)),
		Date:     r.StartedAt.Format("Monday, January 2 15:04"),
		RunID:    r.RunID,
		ThreadID: r.ThreadID,
		Status:   status(r),
		Reason:   string(r.AbortReason),
		Sent:     r.Sent,
		Total:    r.Total,
		Last:     truncate(r.Last, 280),
		Error:    r.Error,
		Duration: r.Duration().Round(time.Second).String(),
		Messages: make([]MessageData, len(sends)),
	}

	for i, m := range sends {
		data.Messages[i] = MessageData{
			Seq:     m.Seq + 1,
			Time:    m.SentAt.Format("15:04:05"),
			Content: truncate(m.Content, 280),
		}
	}

	// Render HTML
	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Rendered{
		Subject:   fmt.Sprintf("threadfeed %s - thread %s, %d/%d sent", status(r), r.ThreadID, r.Sent, r.Total),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
	}, nil
}

func status(r *types.Report) string {
	if r.Succeeded() {
		return "succeeded"
	}
	return string(r.State)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func buildPlainText(data ReportData) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n%s\n\n", data.Title, data.Date)
	fmt.Fprintf(&buf, "Thread: %s\nRun: %s\nSent: %d/%d in %s\n", data.ThreadID, data.RunID, data.Sent, data.Total, data.Duration)
	if data.Reason != "" {
		fmt.Fprintf(&buf, "Reason: %s\n", data.Reason)
	}
	if data.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", data.Error)
	}
	if data.Last != "" {
		fmt.Fprintf(&buf, "Last: %s\n", data.Last)
	}

	if len(data.Messages) > 0 {
		buf.WriteString("\n")
	}
	for _, m := range data.Messages {
		fmt.Fprintf(&buf, "%d. [%s] %s\n", m.Seq, m.Time, m.Content)
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #0866ff; margin-bottom: 5px; }
        .date { color: #666; margin-bottom: 20px; }
        .summary td { padding: 2px 12px 2px 0; }
        .label { color: #666; }
        .error { color: #c62828; }
        .message { border-bottom: 1px solid #eee; padding: 10px 0; }
        .message:last-child { border-bottom: none; }
        .time { color: #999; font-size: 12px; margin-right: 8px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>

        <table class="summary">
            <tr><td class="label">Thread</td><td>{{.ThreadID}}</td></tr>
            <tr><td class="label">Sent</td><td>{{.Sent}} / {{.Total}}</td></tr>
            <tr><td class="label">Duration</td><td>{{.Duration}}</td></tr>
            {{if .Reason}}<tr><td class="label">Reason</td><td>{{.Reason}}</td></tr>{{end}}
            {{if .Last}}<tr><td class="label">Last</td><td>{{.Last}}</td></tr>{{end}}
            {{if .Error}}<tr><td class="label">Error</td><td class="error">{{.Error}}</td></tr>{{end}}
        </table>

        {{range .Messages}}
        <div class="message"><span class="time">{{.Time}}</span>{{.Content}}</div>
        {{end}}

        <div class="footer">
            Run {{.RunID}} · Generated by threadfeed
        </div>
    </div>
</body>
</html>`
