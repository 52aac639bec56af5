package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"
)

// DefaultSubject is used when a strategy has no subject option.
const DefaultSubject = "Snowflake Load Completed"

var bodyTmpl = template.Must(template.New("body").Funcs(template.FuncMap{
	"comma":   humanize.Comma,
	"percent": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}).Parse(`<p>Hello,</p>
<p>The {{.Table}} load has completed successfully: {{comma .Rows}} rows, bin match rate {{percent .MatchRate}}.</p>
{{- if .ReportURL}}
<p><a href="{{.ReportURL}}">View Power BI Report</a></p>
{{- end}}
<p>Regards,<br>ETL Pipeline</p>
`))

// renderBody returns the HTML mail body for o.
func renderBody(o Outcome) (string, error) {
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return buf.String(), nil
}
