package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/contacts-backend/internal/config"
)

func TestBuildMessage_RendersTemplates(t *testing.T) {
	vars := map[string]any{"host": "http://localhost:8000/", "username": "u1", "token": "tok-123"}

	for _, tpl := range []MailTemplate{TemplateVerifyEmail, TemplateResetPassword} {
		t.Run(tpl.Name, func(t *testing.T) {
			msg, err := buildMessage("noreply@x.com", "Contacts API", "u1@x.com", tpl, vars)
			require.NoError(t, err)

			var buf bytes.Buffer
			_, err = msg.WriteTo(&buf)
			require.NoError(t, err)
			out := buf.String()
			assert.Contains(t, out, "u1@x.com")
			assert.Contains(t, out, tpl.Subject)
		})
	}
}

func TestBuildMessage_Errors(t *testing.T) {
	_, err := buildMessage("noreply@x.com", "Contacts API", "u1@x.com", MailTemplate{Name: "missing.html"}, nil)
	assert.Error(t, err)

	_, err = buildMessage("noreply@x.com", "Contacts API", "not an address", TemplateVerifyEmail, nil)
	assert.Error(t, err)
}

func TestNewMailer(t *testing.T) {
	assert.IsType(t, &LogMailer{}, NewMailer(config.MailConfig{}, discardLogger()))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.MailConfig{Server: "smtp.example.com", Port: 465}, discardLogger()))

	err := NewMailer(config.MailConfig{}, discardLogger()).Send(context.Background(), "u1@x.com", TemplateVerifyEmail,
		map[string]any{"host": "h/", "username": "u1", "token": "t"})
	assert.NoError(t, err)
}

type staticTokens struct{}

func (staticTokens) IssueEmailToken(email string) (string, error) { return "tok-" + email, nil }

func TestNotifier_DispatchesInBackground(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, staticTokens{}, discardLogger())

	n.SendVerification("u1@x.com", "u1", "http://h/")
	n.SendPasswordReset("u2@x.com", "u2", "http://h/")
	n.Wait()

	mails := mailer.mails()
	require.Len(t, mails, 2)
	byTo := map[string]sentMail{}
	for _, m := range mails {
		byTo[m.To] = m
	}
	assert.Equal(t, TemplateVerifyEmail, byTo["u1@x.com"].Tpl)
	assert.Equal(t, "tok-u1@x.com", byTo["u1@x.com"].Vars["token"])
	assert.Equal(t, TemplateResetPassword, byTo["u2@x.com"].Tpl)
}
