package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const mailTimeout = 30 * time.Second

// EmailTokenIssuer mints the token embedded in confirmation and reset mails.
type EmailTokenIssuer interface {
	IssueEmailToken(email string) (string, error)
}

// Notifier sends account mails in the background. Delivery failures are
// logged and never reach the request that triggered them.
type Notifier struct {
	mailer  Mailer
	tokens  EmailTokenIssuer
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(mailer Mailer, tokens EmailTokenIssuer, logger *slog.Logger) *Notifier {
	return &Notifier{mailer: mailer, tokens: tokens, logger: logger, timeout: mailTimeout}
}

// SendVerification mails a confirmation link to a freshly registered or
// still unconfirmed account. host is the base URL ending in a slash.
func (n *Notifier) SendVerification(email, username, host string) {
	n.dispatch(email, username, host, TemplateVerifyEmail)
}

func (n *Notifier) SendPasswordReset(email, username, host string) {
	n.dispatch(email, username, host, TemplateResetPassword)
}

func (n *Notifier) dispatch(email, username, host string, tpl MailTemplate) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		token, err := n.tokens.IssueEmailToken(email)
		if err != nil {
			n.logger.Error("failed to issue email token", "template", tpl.Name, "error", err)
			return
		}

		vars := map[string]any{"host": host, "username": username, "token": token}
		if err := n.mailer.Send(ctx, email, tpl, vars); err != nil {
			n.logger.Error("failed to send mail", "to", email, "template", tpl.Name, "error", err)
			return
		}
		n.logger.Info("mail sent", "to", email, "template", tpl.Name)
	}()
}

// Wait blocks until every pending mail has been handed off or failed.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
