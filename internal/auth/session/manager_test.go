package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(config.Config{})
	assert.Equal(t, DefaultCookieName, m.CookieName())
	assert.Equal(t, DefaultTTL, m.TTL())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(DefaultTTL), m.ExpiresAt(now))
}

func TestIssueAppliesConfiguredPolicy(t *testing.T) {
	m := NewManager(config.Config{Session: config.SessionConfig{
		CookieName: "desk",
		TTL:        2 * time.Hour,
		Secure:     true,
		SameSite:   "strict",
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	m.Issue(c, "tok", time.Now().Add(time.Hour))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "desk", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.InDelta(t, 3600, cookies[0].MaxAge, 5)
}

func TestProductionForcesSecureCookie(t *testing.T) {
	m := NewManager(config.Config{Environment: "production"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	m.Clear(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestReadToken(t *testing.T) {
	m := NewManager(config.Config{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := m.ReadToken(c)
	assert.False(t, ok)

	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"})
	token, ok := m.ReadToken(c)
	require.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestTokensAreStoredHashed(t *testing.T) {
	raw, hash, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, HashToken(raw))
	assert.Len(t, hash, 64)

	other, _, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}
