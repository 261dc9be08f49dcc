package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-sh/herald/internal/provider"
)

// --- stub providers ---

type stubEmailProvider struct {
	sent []provider.EmailMessage
	id   string
	err  error
}

func (s *stubEmailProvider) Send(_ context.Context, msg provider.EmailMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return s.id, nil
}

type stubSMSProvider struct {
	to, body string
	id       string
	err      error
}

func (s *stubSMSProvider) Send(_ context.Context, to, body string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.to, s.body = to, body
	return s.id, nil
}

// --- tests ---

func TestEmailDispatcher_RendersMarkdownAndWraps(t *testing.T) {
	p := &stubEmailProvider{id: "prov-1"}
	d, err := NewEmailDispatcher(p, "", "https://example.com/unsubscribe")
	require.NoError(t, err)

	out := d.Dispatch(context.Background(), "alice@example.com",
		"Password Reset", "Click **here** to reset.", "Click here to reset.")

	require.True(t, out.Success)
	assert.Equal(t, "prov-1", out.ProviderMessageID)
	require.Len(t, p.sent, 1)

	msg := p.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Password Reset", msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>here</strong>")
	assert.Contains(t, msg.HTML, "https://example.com/unsubscribe")
	assert.Equal(t, "Click here to reset.", msg.PlainText)
}

func TestEmailDispatcher_SanitizesInjectedScript(t *testing.T) {
	p := &stubEmailProvider{id: "prov-1"}
	d, err := NewEmailDispatcher(p, "", "")
	require.NoError(t, err)

	out := d.Dispatch(context.Background(), "alice@example.com", "Hi",
		`hello <script>alert("x")</script><img src=x onerror="steal()">`, "")

	require.True(t, out.Success)
	html := p.sent[0].HTML
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "onerror")
	assert.Contains(t, html, "hello")
}

func TestEmailDispatcher_ProviderFailure(t *testing.T) {
	p := &stubEmailProvider{err: errors.New("smtp: service unavailable")}
	d, err := NewEmailDispatcher(p, "", "")
	require.NoError(t, err)

	out := d.Dispatch(context.Background(), "alice@example.com", "Hi", "body", "")

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "service unavailable")
	assert.Empty(t, out.ProviderMessageID)
}

func TestEmailDispatcher_CustomWrapper(t *testing.T) {
	p := &stubEmailProvider{id: "prov-2"}
	d, err := NewEmailDispatcher(p, "<main>{{.Title}}|{{.Body}}</main>", "")
	require.NoError(t, err)

	out := d.Dispatch(context.Background(), "a@b.c", "T", "plain body", "")

	require.True(t, out.Success)
	assert.True(t, strings.HasPrefix(p.sent[0].HTML, "<main>T|"))
}

func TestEmailDispatcher_InvalidWrapperTemplate(t *testing.T) {
	_, err := NewEmailDispatcher(&stubEmailProvider{}, "{{.Title", "")
	assert.Error(t, err)
}

func TestSMSDispatcher_SendsPlainTextVerbatim(t *testing.T) {
	p := &stubSMSProvider{id: "sms-1"}
	d := NewSMSDispatcher(p)

	out := d.Dispatch(context.Background(), "+15550001111",
		"ignored title", "**markdown** content", "your code is 123456")

	require.True(t, out.Success)
	assert.Equal(t, "sms-1", out.ProviderMessageID)
	assert.Equal(t, "+15550001111", p.to)
	// SMS uses the plain-text fallback untouched; no markdown rendering.
	assert.Equal(t, "your code is 123456", p.body)
}

func TestSMSDispatcher_FallsBackToContent(t *testing.T) {
	p := &stubSMSProvider{id: "sms-2"}
	d := NewSMSDispatcher(p)

	out := d.Dispatch(context.Background(), "+15550001111", "", "raw content", "")

	require.True(t, out.Success)
	assert.Equal(t, "raw content", p.body)
}

func TestSMSDispatcher_ProviderFailure(t *testing.T) {
	p := &stubSMSProvider{err: errors.New("gateway timeout")}
	d := NewSMSDispatcher(p)

	out := d.Dispatch(context.Background(), "+15550001111", "", "hello", "")

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "gateway timeout")
}

func TestRenderMarkdown_GFMStrikethrough(t *testing.T) {
	html, err := renderMarkdown("this is ~~old~~ new")
	require.NoError(t, err)
	assert.Contains(t, html, "<del>old</del>")
}
