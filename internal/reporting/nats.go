// Package reporting optionally publishes a one-line batch summary to a NATS
// subject after a CLI run, strictly non-core telemetry: nothing in
// pickcheck's pick/script/domain/shrink machinery depends on it, and a
// batch run with no NATS URL configured behaves identically except for the
// missing publish.
package reporting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// BatchSummary is the payload published after a batch run completes.
type BatchSummary struct {
	Property     string        `json:"property"`
	Iterations   int           `json:"iterations"`
	Failures     int           `json:"failures"`
	Duration     time.Duration `json:"duration_ns"`
	FirstRepKey  string        `json:"first_rep_key,omitempty"`
}

// Publisher sends BatchSummary messages to a single NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// Connect dials url (e.g. "nats://127.0.0.1:4222") and returns a Publisher
// bound to subject. Callers should Close it when the batch run ends.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish marshals summary as JSON and publishes it, flushing before
// returning so a short-lived CLI process doesn't exit before delivery.
func (p *Publisher) Publish(summary BatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling batch summary: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing batch summary: %w", err)
	}
	return p.nc.FlushTimeout(2 * time.Second)
}

// Close disconnects from NATS.
func (p *Publisher) Close() {
	p.nc.Close()
}
