package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/report"
)

type fakeSender struct {
	to, subject, html, plain string
	err                      error
}

func (f *fakeSender) Send(to, subject, htmlBody, plainBody string) error {
	f.to, f.subject, f.html, f.plain = to, subject, htmlBody, plainBody
	return f.err
}

func TestSendReport(t *testing.T) {
	s := &fakeSender{}
	n := New(s, "me@example.com")

	err := n.SendReport(&report.Rendered{Subject: "s", HTMLBody: "<p>h</p>", PlainBody: "p"})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", s.to)
	assert.Equal(t, "s", s.subject)
	assert.Equal(t, "<p>h</p>", s.html)
	assert.Equal(t, "p", s.plain)
}

func TestSendReportError(t *testing.T) {
	boom := errors.New("boom")
	n := New(&fakeSender{err: boom}, "me@example.com")
	err := n.SendReport(&report.Rendered{})
	assert.ErrorIs(t, err, boom)
}

func TestNewFromConfig(t *testing.T) {
	valid := config.EmailConfig{Enabled: true, Provider: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 587, ToAddr: "me@example.com"}

	n, err := NewFromConfig(valid)
	require.NoError(t, err)
	assert.NotNil(t, n)

	tests := []struct {
		name   string
		modify func(*config.EmailConfig)
		errMsg string
	}{
		{"no recipient", func(c *config.EmailConfig) { c.ToAddr = "" }, "to_address"},
		{"no host", func(c *config.EmailConfig) { c.SMTPHost = "" }, "smtp_host"},
		{"unknown provider", func(c *config.EmailConfig) { c.Provider = "pigeon" }, "unknown email provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			_, err := NewFromConfig(cfg)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
