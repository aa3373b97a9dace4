package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/propdesk/account"
)

// Memory is an in-process Store for tests and demos. Same contract as the
// sqlite store, state held in maps under one mutex.
type Memory struct {
	mu         sync.Mutex
	challenges map[string]account.Challenge
	orders     map[string]account.Order
}

func NewMemory() *Memory {
	return &Memory{
		challenges: make(map[string]account.Challenge),
		orders:     make(map[string]account.Order),
	}
}

func (m *Memory) CreateChallenge(ctx context.Context, c *account.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[c.ID] = *c
	return nil
}

func (m *Memory) GetChallenge(ctx context.Context, id string) (account.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return account.Challenge{}, ErrChallengeNotFound
	}
	return c, nil
}

func (m *Memory) UpdateChallenge(ctx context.Context, id string, p ChallengePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return ErrChallengeNotFound
	}
	if p.Equity != nil {
		c.Equity = *p.Equity
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.FailureReason != nil {
		c.FailureReason = *p.FailureReason
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	if p.Leverage != nil {
		c.Leverage = *p.Leverage
	}
	m.challenges[id] = c
	return nil
}

func (m *Memory) CompleteChallenge(ctx context.Context, id string, status account.Status, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return false, ErrChallengeNotFound
	}
	if c.Status != account.StatusActive {
		return false, nil
	}
	c.Status = status
	c.FailureReason = reason
	t := at
	c.CompletedAt = &t
	m.challenges[id] = c
	return true, nil
}

func (m *Memory) ListActiveChallenges(ctx context.Context) ([]account.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []account.Challenge
	for _, c := range m.challenges {
		if c.Status == account.StatusActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateOrder(ctx context.Context, o *account.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (account.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return account.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (m *Memory) UpdateOrder(ctx context.Context, id string, p OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Tags != nil {
		o.Tags = *p.Tags
	}
	if p.ScreenshotURL != nil {
		o.ScreenshotURL = *p.ScreenshotURL
	}
	m.orders[id] = o
	return nil
}

func (m *Memory) CloseOrders(ctx context.Context, challengeID string, closes []OrderClose) error {
	if len(closes) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok {
		return ErrChallengeNotFound
	}
	if c.Status != account.StatusActive {
		return fmt.Errorf("challenge %s is %s: %w", challengeID, c.Status, ErrChallengeNotActive)
	}

	// Validate the whole batch before mutating anything so a bad close
	// leaves the store untouched, matching the sqlite transaction.
	for _, cl := range closes {
		o, ok := m.orders[cl.OrderID]
		if !ok || o.ChallengeID != challengeID {
			return fmt.Errorf("order %s: %w", cl.OrderID, ErrOrderNotFound)
		}
		if !o.Open {
			return fmt.Errorf("order %s: %w", cl.OrderID, ErrOrderAlreadyClosed)
		}
	}

	var totalPL float64
	for _, cl := range closes {
		o := m.orders[cl.OrderID]
		o.Open = false
		o.ClosePrice = cl.ClosePrice
		o.RealizedPL = cl.RealizedPL
		t := cl.At
		o.ClosedAt = &t
		m.orders[cl.OrderID] = o
		totalPL += cl.RealizedPL
	}

	c.Equity += totalPL
	m.challenges[challengeID] = c
	return nil
}

func (m *Memory) ListOpenOrders(ctx context.Context, challengeID string) ([]account.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []account.Order
	for _, o := range m.orders {
		if o.ChallengeID == challengeID && o.Open {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListOrders(ctx context.Context, challengeID string) ([]account.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []account.Order
	for _, o := range m.orders {
		if o.ChallengeID == challengeID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Close() error { return nil }
