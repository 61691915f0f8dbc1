package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AlertState is the single piece of state read back by the next evaluation
// to enforce the cooldown: when the last alert went out and at what wind.
type AlertState struct {
	SentAt    time.Time
	WindKnots float64
}

// AlertStateRepository holds one live AlertState per subscriber scope. The
// write is a compare-and-set: it succeeds only when the stored state still
// equals prev, so two overlapping evaluations cannot both record a fire.
type AlertStateRepository interface {
	// Get returns the current state, or nil when no alert was ever sent.
	Get(ctx context.Context, scope string) (*AlertState, error)
	// CompareAndSet replaces prev with next; returns false when the stored
	// state no longer matches prev (a concurrent writer won).
	CompareAndSet(ctx context.Context, scope string, prev *AlertState, next AlertState) (bool, error)
}

// encodeAlertState packs the state into a stable string so that redis can
// compare it byte-for-byte inside the CAS script.
func encodeAlertState(s *AlertState) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%d:%s", s.SentAt.UnixNano(), strconv.FormatFloat(s.WindKnots, 'f', -1, 64))
}

func decodeAlertState(v string) (*AlertState, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed alert state %q", v)
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed alert state timestamp %q: %w", parts[0], err)
	}
	knots, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed alert state wind %q: %w", parts[1], err)
	}
	return &AlertState{SentAt: time.Unix(0, nanos).UTC(), WindKnots: knots}, nil
}

// MemoryAlertState is the in-process implementation, used in tests and
// single-worker deployments without redis.
type MemoryAlertState struct {
	mu     sync.Mutex
	states map[string]string
}

func NewMemoryAlertState() *MemoryAlertState {
	return &MemoryAlertState{states: make(map[string]string)}
}

func (m *MemoryAlertState) Get(_ context.Context, scope string) (*AlertState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeAlertState(m.states[scope])
}

func (m *MemoryAlertState) CompareAndSet(_ context.Context, scope string, prev *AlertState, next AlertState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.states[scope] != encodeAlertState(prev) {
		return false, nil
	}
	m.states[scope] = encodeAlertState(&next)
	return true, nil
}
