package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/provider"
)

// defaultEmailWrapper is the HTML shell applied around every outgoing email
// body. The body is pre-sanitized HTML; the title is auto-escaped.
const defaultEmailWrapper = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#18181f;padding:16px 40px;border-left:3px solid #6366f1;">
              <p style="margin:0;font-size:15px;font-weight:600;color:#e5e7eb;">{{.Title}}</p>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:36px 40px;">
              <div style="font-size:14px;line-height:1.7;color:#374151;word-break:break-word;">{{.Body}}</div>
            </td>
          </tr>
          <tr>
            <td style="background-color:#f9fafb;padding:20px 40px;border-top:1px solid #e5e7eb;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                You are receiving this because notifications are enabled for your account.
                <a href="{{.UnsubscribeURL}}" style="color:#6366f1;text-decoration:none;">Unsubscribe</a>
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`

// EmailDispatcher renders message content to sanitized HTML and sends it
// through the email provider.
type EmailDispatcher struct {
	provider       provider.EmailProvider
	wrapper        *template.Template
	unsubscribeURL string
}

// NewEmailDispatcher creates an EmailDispatcher. wrapperTmpl overrides the
// built-in HTML shell; pass "" to use the default.
func NewEmailDispatcher(p provider.EmailProvider, wrapperTmpl, unsubscribeURL string) (*EmailDispatcher, error) {
	src := wrapperTmpl
	if src == "" {
		src = defaultEmailWrapper
	}
	tmpl, err := template.New("email-wrapper").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing email wrapper template: %w", err)
	}
	return &EmailDispatcher{provider: p, wrapper: tmpl, unsubscribeURL: unsubscribeURL}, nil
}

// Channel returns the channel this dispatcher serves.
func (d *EmailDispatcher) Channel() domain.Channel { return domain.ChannelEmail }

// Dispatch renders content (markdown to sanitized HTML wrapped in the shell
// template) and sends it. A rendering failure aborts only this attempt and
// is reported through the Outcome.
func (d *EmailDispatcher) Dispatch(ctx context.Context, address, title, content, plainText string) Outcome {
	body, err := renderMarkdown(content)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("rendering email body: %v", err)}
	}

	var buf bytes.Buffer
	err = d.wrapper.Execute(&buf, struct {
		Title          string
		Body           template.HTML
		UnsubscribeURL string
	}{
		Title: title,
		// Already sanitized by renderMarkdown; mark as safe so the wrapper
		// does not double-escape it.
		Body:           template.HTML(body), //nolint:gosec
		UnsubscribeURL: d.unsubscribeURL,
	})
	if err != nil {
		return Outcome{Err: fmt.Sprintf("executing email wrapper: %v", err)}
	}

	fallback := plainText
	if fallback == "" {
		fallback = content
	}

	id, err := d.provider.Send(ctx, provider.EmailMessage{
		To:        address,
		Subject:   title,
		HTML:      buf.String(),
		PlainText: fallback,
	})
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	return Outcome{Success: true, ProviderMessageID: id}
}
