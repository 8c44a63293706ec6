package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/compensation"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return compensation.FormatCurrency(d) },
		}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// htmlView adds the rendering mode to the report.
type htmlView struct {
	*Report
	Print bool
}

// WriteHTML renders the report as a right-to-left HTML page. The print
// variant adds the director and finance officer signature blocks.
func (r *Report) WriteHTML(w io.Writer, forPrint bool) error {
	if err := htmlTemplate.Execute(w, htmlView{Report: r, Print: forPrint}); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// HTML renders the report into memory.
func (r *Report) HTML(forPrint bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteHTML(&buf, forPrint); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
