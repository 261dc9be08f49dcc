package delivery

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/herald-sh/herald/internal/domain"
)

// renderedTemplate is the output of applying a TemplateWrapper to a message.
type renderedTemplate struct {
	Subject string
	Body    string
}

// templateData is the context available inside subject/body templates.
type templateData struct {
	Title    string
	Content  string
	Metadata map[string]string
}

// renderTemplate applies the wrapper's subject and body templates to the
// message. The body output stays in the message's content format; the email
// dispatcher runs its own markdown/sanitize pass afterwards.
func renderTemplate(t *domain.TemplateWrapper, msg *domain.Message) (*renderedTemplate, error) {
	data := templateData{Title: msg.Title, Content: msg.Content, Metadata: msg.Metadata}

	body, err := execute("body", t.BodyTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("rendering body template %q: %w", t.Name, err)
	}

	out := &renderedTemplate{Body: body}
	if t.SubjectTemplate != "" {
		subject, err := execute("subject", t.SubjectTemplate, data)
		if err != nil {
			return nil, fmt.Errorf("rendering subject template %q: %w", t.Name, err)
		}
		out.Subject = subject
	}
	return out, nil
}

func execute(name, src string, data templateData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
