package utils

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"taskflow/models"
)

const SessionCookie = "session_token"

// ErrUnauthorized is returned by Authenticate for missing, unknown or expired sessions.
var ErrUnauthorized = errors.New("unauthorized")

// SessionOptions controls how sessions are issued.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
}

// Authenticate resolves the request's session cookie to a user id.
func Authenticate(ctx context.Context, r *http.Request, client *redis.Client, now time.Time) (int64, error) {
	st, err := r.Cookie(SessionCookie)
	if err != nil || st.Value == "" {
		return 0, fmt.Errorf("%w: missing or empty session token", ErrUnauthorized)
	}

	session, err := GetSession(ctx, client, st.Value)
	if errors.Is(err, ErrSessionNotFound) {
		return 0, fmt.Errorf("%w: session token does not exist", ErrUnauthorized)
	}
	if err != nil {
		return 0, fmt.Errorf("validating session: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil {
		if err := DeleteSession(ctx, client, st.Value); err != nil {
			log.Printf("failed to drop malformed session: %v", err)
		}
		return 0, fmt.Errorf("%w: malformed session expiry", ErrUnauthorized)
	}
	if !now.Before(expiresAt) {
		return 0, fmt.Errorf("%w: session has expired", ErrUnauthorized)
	}

	userID, err := strconv.ParseInt(session.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed user id in session", ErrUnauthorized)
	}

	if err := UpdateLastActivityRedis(ctx, client, st.Value, now); err != nil {
		log.Printf("failed to refresh session activity: %v", err)
	}
	return userID, nil
}

// OpenSession creates a session for userID, stores it in Redis and sets the cookie.
func OpenSession(ctx context.Context, w http.ResponseWriter, r *http.Request, client *redis.Client, userID int64, opts SessionOptions, now time.Time) (string, error) {
	sessionToken, err := GenerateToken(32)
	if err != nil {
		return "", err
	}

	session := models.Session{
		SessionToken: sessionToken,
		UserID:       strconv.FormatInt(userID, 10),
		CreatedAt:    now.UTC().Format(time.RFC3339),
		ExpiresAt:    now.Add(opts.TTL).UTC().Format(time.RFC3339),
		LastActivity: now.UTC().Format(time.RFC3339),
		UserAgent:    GetUserAgent(r),
		IPAddress:    GetIP(r),
	}

	if err := StoreSession(ctx, client, session, opts.TTL); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionToken,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
	})
	return sessionToken, nil
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}
