// Package crmsvc forwards leads to the CRM.
package crmsvc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/edulead/core/lead"
)

const idPrefix = "CRM-"

// MockClient stands in for a real CRM: it waits for a fixed delay and hands out a fresh identifier.
type MockClient struct {
	delay time.Duration
	newID func() string
}

var _ lead.CRMSyncer = (*MockClient)(nil)

type Option func(*MockClient)

func WithDelay(delay time.Duration) Option {
	return func(c *MockClient) { c.delay = delay }
}

// WithIDGenerator replaces the uuid based identifier generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *MockClient) { c.newID = fn }
}

func NewMockClient(opts ...Option) *MockClient {
	c := &MockClient{
		delay: 2 * time.Second,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MockClient) SyncLead(ctx context.Context, _ lead.Lead) (string, error) {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}
	return idPrefix + c.newID(), nil
}
