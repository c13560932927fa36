package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionBackend keeps the signed-in user of each session
type SessionBackend interface {
	// Get returns nil without error when the session has no user
	Get(ctx context.Context, sessionID string) (*models.User, error)
	Put(ctx context.Context, sessionID string, user models.User) error
	Delete(ctx context.Context, sessionID string) error
}

type memorySession struct {
	user      models.User
	expiresAt time.Time
}

// MemorySessionBackend holds sessions in process memory
type MemorySessionBackend struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionBackend creates an in-memory backend. ttl <= 0 never expires.
func NewMemorySessionBackend(ttl time.Duration) *MemorySessionBackend {
	return &MemorySessionBackend{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (b *MemorySessionBackend) Get(_ context.Context, sessionID string) (*models.User, error) {
	b.mu.RLock()
	s, ok := b.sessions[sessionID]
	b.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !s.expiresAt.IsZero() && b.now().After(s.expiresAt) {
		b.mu.Lock()
		delete(b.sessions, sessionID)
		b.mu.Unlock()
		return nil, nil
	}
	user := s.user
	return &user, nil
}

func (b *MemorySessionBackend) Put(_ context.Context, sessionID string, user models.User) error {
	s := memorySession{user: user}
	if b.ttl > 0 {
		s.expiresAt = b.now().Add(b.ttl)
	}
	b.mu.Lock()
	b.sessions[sessionID] = s
	b.mu.Unlock()
	return nil
}

func (b *MemorySessionBackend) Delete(_ context.Context, sessionID string) error {
	b.mu.Lock()
	delete(b.sessions, sessionID)
	b.mu.Unlock()
	return nil
}

const redisSessionPrefix = "atelier:session:"

// RedisSessionBackend stores sessions as JSON values with a TTL
type RedisSessionBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionBackend creates a Redis-backed session store
func NewRedisSessionBackend(client *redis.Client, ttl time.Duration) *RedisSessionBackend {
	return &RedisSessionBackend{client: client, ttl: ttl}
}

// ConnectRedis initializes a Redis client from URL or host:port input
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (b *RedisSessionBackend) Get(ctx context.Context, sessionID string) (*models.User, error) {
	raw, err := b.client.Get(ctx, redisSessionPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &user, nil
}

func (b *RedisSessionBackend) Put(ctx context.Context, sessionID string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return b.client.Set(ctx, redisSessionPrefix+sessionID, raw, b.ttl).Err()
}

func (b *RedisSessionBackend) Delete(ctx context.Context, sessionID string) error {
	return b.client.Del(ctx, redisSessionPrefix+sessionID).Err()
}

// LoginRequest signs a roster user into a session
type LoginRequest struct {
	SessionID   string `json:"-"`
	Email       string `json:"email" binding:"required,email"`
	Role        string `json:"role" binding:"omitempty,oneof=customer designer admin"`
	AccessToken string `json:"-"`
}

// ProfilePatch is a partial update of the signed-in user's contact details
type ProfilePatch struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// SessionService resolves roster users and tracks who is signed in per session
type SessionService struct {
	db       *gorm.DB
	backend  SessionBackend
	verifier IdentityVerifier
}

// NewSessionService creates a session store. verifier may be nil, in which
// case logins are not cross-checked against the identity provider.
func NewSessionService(db *gorm.DB, backend SessionBackend, verifier IdentityVerifier) *SessionService {
	return &SessionService{db: db, backend: backend, verifier: verifier}
}

// Login looks the email up in the roster and remembers the user for the
// session. Without an identity verifier the requested role is overlaid
// (default customer). With one, the caller must present a token for the same
// email and can only act under the roster role.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	if req.Role != "" && !models.ValidRole(req.Role) {
		return nil, validationError("unknown role %q", req.Role)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	role := req.Role
	if s.verifier != nil {
		if req.AccessToken == "" {
			return nil, ErrTokenRequired
		}
		verified, err := s.verifier.VerifiedEmail(ctx, req.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to verify identity: %w", err)
		}
		if !strings.EqualFold(verified, user.Email) {
			return nil, ErrIdentityMismatch
		}
		if role != "" && role != user.Role {
			return nil, ErrRoleNotGranted
		}
		role = user.Role
	} else if role == "" {
		role = models.RoleCustomer
	}

	user.Role = role
	if err := s.backend.Put(ctx, req.SessionID, user); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logger.FromCtx(ctx).Info("user logged in",
		zap.Uint("user_id", user.ID),
		zap.String("role", user.Role),
	)
	return &user, nil
}

// Logout forgets the session's user. Logging out twice is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.backend.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Profile returns the session's user or ErrNoCurrentUser
func (s *SessionService) Profile(ctx context.Context, sessionID string) (*models.User, error) {
	user, err := s.backend.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if user == nil {
		return nil, ErrNoCurrentUser
	}
	return user, nil
}

// UpdateProfile merges patch into the signed-in user. The id and the
// session role never change.
func (s *SessionService) UpdateProfile(ctx context.Context, sessionID string, patch ProfilePatch) (*models.User, error) {
	user, err := s.Profile(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		user.Name = *patch.Name
		updates["name"] = *patch.Name
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
		updates["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		user.Address = *patch.Address
		updates["address"] = *patch.Address
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	if err := s.backend.Put(ctx, sessionID, *user); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return user, nil
}

// IsAuthenticated reports whether the session has a user
func (s *SessionService) IsAuthenticated(ctx context.Context, sessionID string) bool {
	user, err := s.backend.Get(ctx, sessionID)
	return err == nil && user != nil
}

// HasRole reports whether the session's user acts under role
func (s *SessionService) HasRole(ctx context.Context, sessionID, role string) bool {
	return s.HasAnyRole(ctx, sessionID, role)
}

// HasAnyRole reports whether the session's user acts under one of roles
func (s *SessionService) HasAnyRole(ctx context.Context, sessionID string, roles ...string) bool {
	user, err := s.backend.Get(ctx, sessionID)
	if err != nil || user == nil {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

// ListUsers returns the roster to admins
func (s *SessionService) ListUsers(ctx context.Context, sessionID string) ([]models.User, error) {
	if !s.HasRole(ctx, sessionID, models.RoleAdmin) {
		return nil, ErrAccessDenied
	}

	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
