package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// StateTTL is how long a user has to finish the consent screen
const StateTTL = 5 * time.Minute

var ErrInvalidState = errors.New("invalid or expired oauth state")

// OAuthState ties a CSRF state token to the user and platform that started the flow
type OAuthState struct {
	State     string    `gorm:"type:text;primaryKey" json:"state"`
	Platform  string    `gorm:"type:text;not null" json:"platform"`
	UserID    string    `gorm:"type:text;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}

// StateStore persists pending states. Take removes the entry it returns,
// so a state can be redeemed only once.
type StateStore interface {
	Put(ctx context.Context, st *OAuthState) error
	Take(ctx context.Context, state string) (*OAuthState, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GenerateState returns 32 random bytes, URL-safe encoded
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StateManager issues and verifies states against a store
type StateManager struct {
	store StateStore
	ttl   time.Duration
	now   func() time.Time
}

func NewStateManager(store StateStore) *StateManager {
	return &StateManager{store: store, ttl: StateTTL, now: time.Now}
}

// WithClock replaces the time source
func (m *StateManager) WithClock(now func() time.Time) *StateManager {
	m.now = now
	return m
}

// Issue stores a fresh state for the user and platform
func (m *StateManager) Issue(ctx context.Context, platform, userID string) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, &OAuthState{
		State:     state,
		Platform:  platform,
		UserID:    userID,
		CreatedAt: m.now(),
	}); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

// Verify consumes the state. It fails when the state is unknown, already
// used, or at least StateTTL old.
func (m *StateManager) Verify(ctx context.Context, state string) (*OAuthState, error) {
	if state == "" {
		return nil, ErrInvalidState
	}
	st, err := m.store.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if m.now().Sub(st.CreatedAt) >= m.ttl {
		return nil, ErrInvalidState
	}
	return st, nil
}

// Purge drops states that can no longer be redeemed
func (m *StateManager) Purge(ctx context.Context) (int64, error) {
	return m.store.PurgeBefore(ctx, m.now().Add(-m.ttl))
}

// GormStateStore keeps states in the oauth_states table
type GormStateStore struct {
	db *gorm.DB
}

func NewGormStateStore(db *gorm.DB) *GormStateStore {
	return &GormStateStore{db: db}
}

func (s *GormStateStore) Put(ctx context.Context, st *OAuthState) error {
	return s.db.WithContext(ctx).Create(st).Error
}

func (s *GormStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	var st OAuthState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ?", state).First(&st).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidState
			}
			return err
		}
		res := tx.Where("state = ?", state).Delete(&OAuthState{})
		if res.Error != nil {
			return res.Error
		}
		// lost a race with a concurrent callback
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&OAuthState{})
	return res.RowsAffected, res.Error
}

// MemoryStateStore is a process-local store for single-instance deployments
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]OAuthState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]OAuthState)}
}

func (s *MemoryStateStore) Put(ctx context.Context, st *OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.State] = *st
	return nil
}

func (s *MemoryStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[state]
	if !ok {
		return nil, ErrInvalidState
	}
	delete(s.states, state)
	return &st, nil
}

func (s *MemoryStateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, st := range s.states {
		if st.CreatedAt.Before(cutoff) {
			delete(s.states, k)
			n++
		}
	}
	return n, nil
}
