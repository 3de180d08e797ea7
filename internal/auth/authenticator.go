package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-dashboard-go/internal/config"
	"portfolio-dashboard-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password. Callers must not distinguish the two cases.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Status is the tri-state outcome of a session check.
type Status int

const (
	// StatusPending means no credentials have been presented yet.
	StatusPending Status = iota
	// StatusFailed means the presented credentials or cookie were rejected.
	StatusFailed
	// StatusAuthenticated means the session is valid.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Authenticator verifies username/password pairs against the bcrypt hashes
// in the configuration and maintains sessions in the database. Dashboard
// rendering requires an Authenticated status from Verify; there is no
// ambient logged-in flag.
type Authenticator struct {
	db         *gorm.DB
	logger     *zap.Logger
	users      map[string]string
	cookieName string
	cookieKey  []byte
	expiry     time.Duration
}

// New creates a new Authenticator from the auth configuration.
func New(cfg *config.Auth, db *gorm.DB, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		db:         db,
		logger:     logger,
		users:      cfg.Users,
		cookieName: cfg.CookieName,
		cookieKey:  []byte(cfg.CookieKey),
		expiry:     time.Duration(cfg.ExpiryDays) * 24 * time.Hour,
	}
}

// CookieName returns the configured session cookie name.
func (a *Authenticator) CookieName() string { return a.cookieName }

// Expiry returns the configured session lifetime.
func (a *Authenticator) Expiry() time.Duration { return a.expiry }

// Login checks the password against the stored hash and, on success, creates
// a session and returns the signed cookie value for it.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	hash, ok := a.users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	session := models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		ExpiresAt: time.Now().Add(a.expiry),
	}
	if err := a.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	a.logger.Info("User logged in", zap.String("username", username))
	return a.signedCookie(session.Token), nil
}

// Verify resolves a cookie value to a session status and, when
// authenticated, the session's username. Expired sessions are deleted on
// sight.
func (a *Authenticator) Verify(ctx context.Context, cookieValue string) (Status, string) {
	if cookieValue == "" {
		return StatusPending, ""
	}

	token, ok := a.parseCookie(cookieValue)
	if !ok {
		return StatusFailed, ""
	}

	var session models.Session
	err := a.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusFailed, ""
	}
	if err != nil {
		a.logger.Error("Failed to look up session", zap.Error(err))
		return StatusFailed, ""
	}

	if time.Now().After(session.ExpiresAt) {
		if err := a.db.WithContext(ctx).Delete(&session).Error; err != nil {
			a.logger.Warn("Failed to delete expired session", zap.Error(err))
		}
		return StatusFailed, ""
	}

	return StatusAuthenticated, session.Username
}

// Logout deletes the session behind a cookie value. An unparseable cookie is
// a no-op.
func (a *Authenticator) Logout(ctx context.Context, cookieValue string) error {
	token, ok := a.parseCookie(cookieValue)
	if !ok {
		return nil
	}
	if err := a.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// sign creates a HMAC-SHA256 signature over the token with the cookie key.
func (a *Authenticator) sign(token string) string {
	h := hmac.New(sha256.New, a.cookieKey)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func (a *Authenticator) signedCookie(token string) string {
	return token + "." + a.sign(token)
}

// parseCookie splits a cookie value into token and signature and verifies
// the signature before the token is ever looked up.
func (a *Authenticator) parseCookie(value string) (token string, ok bool) {
	token, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	if !hmac.Equal([]byte(signature), []byte(a.sign(token))) {
		return "", false
	}
	return token, true
}
