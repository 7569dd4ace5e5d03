// Package session owns the login cookie: how tokens are minted and hashed,
// how long they live and how the browser is told to store them.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/villadesk/internal/config"
)

const (
	DefaultCookieName = "villadesk_session"
	DefaultTTL        = 7 * 24 * time.Hour

	tokenBytes = 32
)

type Manager struct {
	cookieName string
	ttl        time.Duration
	secure     bool
	sameSite   http.SameSite
}

func NewManager(cfg config.Config) *Manager {
	m := &Manager{
		cookieName: strings.TrimSpace(cfg.Session.CookieName),
		ttl:        cfg.Session.TTL,
		secure:     cfg.Session.Secure || cfg.IsProduction(),
		sameSite:   parseSameSite(cfg.Session.SameSite),
	}
	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	return m
}

func (m *Manager) CookieName() string { return m.cookieName }

func (m *Manager) TTL() time.Duration { return m.ttl }

// ExpiresAt is the expiry of a session opened at now.
func (m *Manager) ExpiresAt(now time.Time) time.Time {
	return now.Add(m.ttl)
}

// NewToken returns a random token for the cookie and the hash to persist.
// Only the hash is ever stored.
func NewToken() (raw, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// Issue writes the cookie so the browser drops it when the stored session
// expires.
func (m *Manager) Issue(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(m.ttl.Seconds())
	}
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cookieName, token, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
