// Package session tracks conversation sessions for the dev backend and
// mints the opaque connection tokens handed to widget clients.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/luminalabs/visage/internal/config"
	"github.com/luminalabs/visage/internal/infrastructure/redis"
)

// Session is one conversation instance.
type Session struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	VoiceID   string    `json:"voiceId"`
	CreatedAt time.Time `json:"createdAt"`
}

type connectionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type Store interface {
	Set(ctx context.Context, sessionID string, sess *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStore is the fallback when Redis is unreachable. Entries carry
// the same TTL Redis would apply and are pruned on access.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type Service struct {
	store Store
	ttl   time.Duration
}

// NewService builds a session service backed by Redis when available,
// memory otherwise.
func NewService(redisService *redis.Service) *Service {
	var store Store
	ttl := config.GetSessionTTL()
	if redisService != nil && redisService.Ping(context.Background()) == nil {
		store = &RedisStore{redisService: redisService}
	} else {
		store = newMemoryStore(ttl)
	}

	return &Service{store: store, ttl: ttl}
}

func newMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Create registers a new session and returns it alongside a signed
// connection token. The token is opaque to clients.
func (s *Service) Create(ctx context.Context, prompt, voiceID string) (*Session, string, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Prompt:    prompt,
		VoiceID:   voiceID,
		CreatedAt: time.Now(),
	}

	if err := s.store.Set(ctx, sess.ID, sess); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}

	token, err := s.issueConnectionToken(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Resolve validates a connection token and returns the session it names.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	claims := &connectionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid connection token")
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("connection token missing session id")
	}

	sess, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", claims.SessionID)
	}
	return sess, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) issueConnectionToken(sess *Session) (string, error) {
	now := time.Now()
	claims := connectionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		SessionID: sess.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return "", fmt.Errorf("sign connection token: %w", err)
	}
	return signed, nil
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, sessionID string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return rs.redisService.Set(ctx, sessionKey(sessionID), string(data), config.GetSessionTTL())
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := rs.redisService.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return rs.redisService.Delete(ctx, sessionKey(sessionID))
}

func sessionKey(sessionID string) string {
	return "visage:session:" + sessionID
}

// Memory Store implementation
func (ms *MemoryStore) Set(ctx context.Context, sessionID string, sess *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.pruneLocked()
	ms.entries[sessionID] = memoryEntry{sess: sess, expiresAt: ms.now().Add(ms.ttl)}
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	entry, exists := ms.entries[sessionID]
	if !exists {
		return nil, nil
	}
	if ms.now().After(entry.expiresAt) {
		delete(ms.entries, sessionID)
		return nil, nil
	}
	return entry.sess, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, sessionID)
	return nil
}

func (ms *MemoryStore) pruneLocked() {
	now := ms.now()
	for id, entry := range ms.entries {
		if now.After(entry.expiresAt) {
			delete(ms.entries, id)
		}
	}
}
