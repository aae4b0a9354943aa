// Package events broadcasts service record changes to interested dashboards.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/atharv3903/servicelocator/internal/model"
)

const (
	KindCreated = "created"
	KindUpdated = "updated"
)

// SubjectPrefix is prepended to the event kind, e.g. services.updated.
const SubjectPrefix = "services."

func Subject(kind string) string { return SubjectPrefix + kind }

type Publisher interface {
	Publish(ctx context.Context, ev model.ServiceEvent) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, model.ServiceEvent) error { return nil }
func (Nop) Close() error                                      { return nil }

// NATS publishes events as JSON on core NATS subjects.
type NATS struct {
	conn *nats.Conn
}

func ConnectNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("servicelocator"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, ev model.ServiceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	if err := n.conn.Publish(Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(ev.Kind), err)
	}
	return nil
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
