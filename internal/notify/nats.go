package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Options configures the NATS sink connection.
type Options struct {
	URL            string
	Subject        string
	ConnectionName string
	MaxReconnects  int
	ReconnectWait  time.Duration
}

type natsSink struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSSink connects to NATS and publishes deposits to a JetStream
// subject, so the downstream notifier can replay missed messages.
func NewNATSSink(opts Options) (Sink, func(), error) {
	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.ConnectionName),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	sink := &natsSink{conn: conn, js: js, subject: opts.Subject}
	return sink, conn.Close, nil
}

func (s *natsSink) NotifyDeposit(ctx context.Context, deposit Deposit) error {
	if deposit.EventID == "" {
		deposit.EventID = uuid.NewString()
	}
	payload, err := json.Marshal(deposit)
	if err != nil {
		return fmt.Errorf("marshal deposit: %w", err)
	}

	if _, err := s.js.Publish(ctx, s.subject, payload); err != nil {
		return fmt.Errorf("publish deposit: %w", err)
	}
	return nil
}
