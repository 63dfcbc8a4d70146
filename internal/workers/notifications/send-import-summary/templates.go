// internal/workers/notifications/send-import-summary/templates.go
package sendimportsummary

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"subtrack-workers/internal/models"

	"gopkg.in/yaml.v3"
)

const TypeImportSummary = "import_summary"

var defaultTemplate = models.NotificationTemplate{
	Type:    TypeImportSummary,
	Subject: `Import finished: {{.CreatedCount}} subscriptions added`,
	Body: `Your import{{if .FileName}} of {{.FileName}}{{end}} has finished.

Rows read: {{.TotalRows}}
Subscriptions added: {{.CreatedCount}}
Rows skipped: {{.RejectedRows}}
{{if .Errors}}
Problems found:
{{range .Errors}}  - Row {{.Row}}, {{.Field}}: {{.Message}}{{if .Value}} ("{{.Value}}"){{end}}
{{end}}{{if .MoreErrors}}  ...and {{.MoreErrors}} more
{{end}}{{end}}`,
	SMS: `SubTrack import: {{.CreatedCount}} added, {{.RejectedRows}} skipped. Check your email for details.`,
}

type compiled struct {
	subject *template.Template
	body    *template.Template
	sms     *template.Template
}

type templateFile struct {
	Templates []models.NotificationTemplate `yaml:"templates"`
}

// loadTemplate returns the import summary template from path, or the
// built-in one when path is empty.
func loadTemplate(path string) (*compiled, error) {
	tpl := defaultTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read templates: %w", err)
		}
		var file templateFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		found := false
		for _, t := range file.Templates {
			if t.Type == TypeImportSummary {
				tpl, found = t, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("template %q not found in %s", TypeImportSummary, path)
		}
	}
	return compile(tpl)
}

func compile(t models.NotificationTemplate) (*compiled, error) {
	subject, err := template.New("subject").Parse(t.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject template: %w", err)
	}
	body, err := template.New("body").Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("body template: %w", err)
	}
	c := &compiled{subject: subject, body: body}
	if t.SMS != "" {
		if c.sms, err = template.New("sms").Parse(t.SMS); err != nil {
			return nil, fmt.Errorf("sms template: %w", err)
		}
	}
	return c, nil
}

func render(t *template.Template, data summaryData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
