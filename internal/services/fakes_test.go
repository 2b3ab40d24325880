package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/contacts-backend/internal/storetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// memTx runs fn directly against the in-memory store.
func memTx(store *storetest.Contacts) TxRunner {
	return func(ctx context.Context, fn func(context.Context, ContactStore) error) error {
		return fn(ctx, store)
	}
}

// recordingMailer captures sent mails.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To   string
	Tpl  MailTemplate
	Vars map[string]any
}

func (r *recordingMailer) Send(_ context.Context, to string, tpl MailTemplate, vars map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{To: to, Tpl: tpl, Vars: vars})
	return nil
}

func (r *recordingMailer) mails() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}
