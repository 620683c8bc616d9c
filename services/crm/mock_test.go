package crmsvc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edulead/core/lead"
)

func TestMockClient_SyncLead(t *testing.T) {
	t.Run("stamps a uuid identifier", func(t *testing.T) {
		c := NewMockClient(WithDelay(0))
		id, err := c.SyncLead(context.Background(), lead.Lead{ID: 1})
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "CRM-"), id)
		_, err = uuid.Parse(strings.TrimPrefix(id, "CRM-"))
		assert.NoError(t, err)
	})

	t.Run("custom generator", func(t *testing.T) {
		c := NewMockClient(WithDelay(time.Millisecond), WithIDGenerator(func() string { return "42" }))
		id, err := c.SyncLead(context.Background(), lead.Lead{ID: 1})
		assert.NoError(t, err)
		assert.Equal(t, "CRM-42", id)
	})

	t.Run("gives up when the context is done", func(t *testing.T) {
		c := NewMockClient(WithDelay(time.Minute))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		id, err := c.SyncLead(ctx, lead.Lead{ID: 1})
		assert.Equal(t, context.DeadlineExceeded, err)
		assert.Empty(t, id)
	})

	t.Run("cancelled context without delay", func(t *testing.T) {
		c := NewMockClient(WithDelay(0))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.SyncLead(ctx, lead.Lead{ID: 1})
		assert.Equal(t, context.Canceled, err)
	})
}
