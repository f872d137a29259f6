package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")
)

const accountsParent = "identity/accounts"

// account is the stored shape of an emulator user. The document id is the
// user id.
type account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AccountService implements the emulator's identity operations on top of the
// document store.
type AccountService struct {
	docs    DocumentStore
	tokens  *TokenService
	limiter SignInRateLimiter
	logger  *zap.Logger
}

func NewAccountService(docs DocumentStore, tokens *TokenService, limiter SignInRateLimiter, logger *zap.Logger) *AccountService {
	if limiter == nil {
		limiter = NewSignInRateLimiter(10*time.Minute, 10)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{docs: docs, tokens: tokens, limiter: limiter, logger: logger}
}

// SignUp creates an account and signs it in.
func (s *AccountService) SignUp(ctx context.Context, email, password string) (TokenPair, string, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return TokenPair{}, "", ErrInvalidEmail
	}
	if len(password) < 6 {
		return TokenPair{}, "", ErrWeakPassword
	}

	if _, _, err := s.findByEmail(ctx, email); err == nil {
		return TokenPair{}, "", ErrEmailExists
	} else if !errors.Is(err, ErrInvalidCredentials) {
		return TokenPair{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, "", err
	}

	userID := uuid.NewString()
	doc, err := json.Marshal(account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := s.docs.Put(ctx, accountsParent, userID, doc); err != nil {
		return TokenPair{}, "", err
	}

	s.logger.Info("account created", zap.String("userId", userID))
	pair, err := s.tokens.Issue(userID, email)
	return pair, userID, err
}

// SignIn verifies the password and issues tokens. Attempts are rate limited
// per email.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (TokenPair, string, error) {
	email = normalizeEmail(email)
	if !s.limiter.Allow(email) {
		return TokenPair{}, "", ErrRateLimited
	}

	userID, acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(userID, email)
	return pair, userID, err
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (string, account, error) {
	docs, err := s.docs.List(ctx, accountsParent)
	if err != nil {
		return "", account{}, err
	}
	for id, doc := range docs {
		var acct account
		if err := json.Unmarshal(doc, &acct); err != nil {
			continue
		}
		if acct.Email == email {
			return id, acct, nil
		}
	}
	return "", account{}, ErrInvalidCredentials
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
