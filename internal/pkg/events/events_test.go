package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChange(t *testing.T) {
	c, err := NewChange("fees", "UPDATE", map[string]any{"status": "Paid"})
	require.NoError(t, err)
	assert.Equal(t, "fees.UPDATE", c.RoutingKey())
	assert.False(t, c.Timestamp.IsZero())

	var rec map[string]string
	require.NoError(t, json.Unmarshal(c.Record, &rec))
	assert.Equal(t, "Paid", rec["status"])
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	var got []string
	boom := errors.New("broker down")
	f := Fanout{
		PublisherFunc(func(_ context.Context, c Change) error { got = append(got, "a:"+c.Table); return nil }),
		PublisherFunc(func(context.Context, Change) error { return boom }),
		PublisherFunc(func(_ context.Context, c Change) error { got = append(got, "c:"+c.Table); return nil }),
	}

	err := f.Publish(context.Background(), Change{Table: "chats", Type: "INSERT"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:chats", "c:chats"}, got)

	assert.NoError(t, Noop{}.Publish(context.Background(), Change{}))
}
