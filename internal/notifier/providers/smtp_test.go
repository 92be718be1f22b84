package providers

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	msg := string(buildMessage("bot@example.com", "me@example.com", "Run done", "<b>ok</b>", "ok", "b42", date))

	assert.True(t, strings.HasPrefix(msg, "From: bot@example.com\r\nTo: me@example.com\r\nSubject: Run done\r\n"))
	assert.Contains(t, msg, "Date: Tue, 03 Feb 2026 04:05:06 +0000\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/alternative; boundary=\"b42\"\r\n")
	assert.Contains(t, msg, "--b42\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\nok\r\n")
	assert.Contains(t, msg, "--b42\r\nContent-Type: text/html; charset=\"utf-8\"\r\n\r\n<b>ok</b>\r\n")
	assert.True(t, strings.HasSuffix(msg, "--b42--\r\n"))
}

func TestSMTPSenderSend(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 2525, "user", "pass", "bot@example.com")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		return nil
	}

	require.NoError(t, s.Send("me@example.com", "subj", "<p>hi</p>", "hi"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.NotNil(t, gotAuth)
}

func TestSMTPSenderWithoutAuth(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "bot@example.com")
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, s.Send("me@example.com", "subj", "", ""))
	assert.Nil(t, gotAuth)
}

func TestSMTPSenderError(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "bot@example.com")
	boom := errors.New("connection refused")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := s.Send("me@example.com", "subj", "", "")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to send email")
}
