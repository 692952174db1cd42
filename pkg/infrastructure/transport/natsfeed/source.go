// Package natsfeed is a NATS-backed scan-update source: a real transport
// carrying the same ScanUpdate JSON the simulated sources produce. It plugs
// into the reconciler through the same UpdateSource contract, so swapping the
// simulation for a live feed changes only wiring.
package natsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// DefaultSubject is the subject scan updates are published on.
const DefaultSubject = "shelfwatch.scans"

// Source subscribes to a NATS subject and emits decoded scan updates.
type Source struct {
	url     string
	subject string
	logger  *slog.Logger
}

// New creates a NATS source. An empty subject falls back to DefaultSubject; a
// nil logger falls back to slog.Default().
func New(url, subject string, logger *slog.Logger) *Source {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{url: url, subject: subject, logger: logger}
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return "nats:" + s.subject
}

// Run connects, subscribes, and emits every well-formed scan update until ctx
// is done. Malformed payloads are logged and skipped; deeper validation is
// the reconciler's job.
func (s *Source) Run(ctx context.Context, emit func(entities.ScanUpdate)) error {
	conn, err := nats.Connect(s.url, nats.Name("shelfwatch-feed"))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer conn.Drain()

	sub, err := conn.Subscribe(s.subject, func(msg *nats.Msg) {
		var update entities.ScanUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			s.logger.Warn("skipping malformed scan payload", "subject", s.subject, "error", err)
			return
		}
		emit(update)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	defer sub.Unsubscribe()

	s.logger.Info("nats scan feed connected", "url", conn.ConnectedUrl(), "subject", s.subject)
	<-ctx.Done()
	return nil
}
