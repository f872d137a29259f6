package emulator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenPair is what the identity endpoints hand out.
type TokenPair struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Claims carried by emulator-issued tokens.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and validates the emulator's JWTs. Refresh tokens are
// single-use: each exchange revokes the presented jti and issues a new one.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	store      RefreshTokenStore
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	if store == nil {
		store = NewMemoryRefreshTokenStore()
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     "evolve-emulator",
		store:      store,
	}
}

// Issue signs an access/refresh pair for a user.
func (s *TokenService) Issue(userID, email string) (TokenPair, error) {
	if len(s.secret) == 0 {
		return TokenPair{}, ErrTokenInvalid
	}
	now := time.Now().UTC()

	access, err := s.sign(userID, email, "", now, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.sign(userID, email, jti, now, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Store(jti, userID, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{IDToken: access, RefreshToken: refresh, ExpiresIn: s.accessTTL}, nil
}

// Refresh validates a refresh token, revokes it and issues a fresh pair.
// It returns the user the token belonged to.
func (s *TokenService) Refresh(refreshToken string) (TokenPair, string, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return TokenPair{}, "", err
	}
	if claims.TokenType != "refresh" || claims.ID == "" {
		return TokenPair{}, "", ErrTokenInvalid
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return TokenPair{}, "", ErrTokenInvalid
	}
	if err := s.store.Revoke(claims.ID); err != nil {
		return TokenPair{}, "", ErrTokenInvalid
	}
	pair, err := s.Issue(claims.UserID, claims.Email)
	return pair, claims.UserID, err
}

// ParseAccess validates an access token and returns its claims.
func (s *TokenService) ParseAccess(token string) (Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) sign(userID, email, jti string, now time.Time, ttl time.Duration) (string, error) {
	tokenType := "access"
	if jti != "" {
		tokenType = "refresh"
	}
	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID || claims.Issuer != s.issuer {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// RefreshTokenStore tracks live refresh-token jtis so they can be revoked.
type RefreshTokenStore interface {
	Store(jti, userID string, ttl time.Duration) error
	Exists(jti string) (bool, error)
	Revoke(jti string) error
}

type memoryRefreshTokenStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{items: map[string]time.Time{}}
}

func (s *memoryRefreshTokenStore) Store(jti, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *memoryRefreshTokenStore) Exists(jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(s.items, jti)
		return false, nil
	}
	return true, nil
}

func (s *memoryRefreshTokenStore) Revoke(jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

type redisRefreshTokenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{client: client, prefix: "auth:refresh:"}
}

func (s *redisRefreshTokenStore) Store(jti, userID string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, userID, ttl).Err()
}

func (s *redisRefreshTokenStore) Exists(jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisRefreshTokenStore) Revoke(jti string) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}
