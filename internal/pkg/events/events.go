// Package events carries row-level change notifications to subscribers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Change describes one INSERT, UPDATE or DELETE on a table. Key optionally
// scopes the change to a sub-stream, e.g. the course of a chat message.
type Change struct {
	Table     string          `json:"table"`
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewChange marshals record into a Change stamped with the current time.
func NewChange(table, changeType string, record any) (Change, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Change{}, err
	}
	return Change{Table: table, Type: changeType, Record: raw, Timestamp: time.Now().UTC()}, nil
}

// RoutingKey is "<table>.<type>".
func (c Change) RoutingKey() string {
	return c.Table + "." + c.Type
}

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, change Change) error

func (f PublisherFunc) Publish(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Change) error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, change Change) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
