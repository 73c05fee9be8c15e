package handler

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	a := NewAuth("code", "secret")
	tok := a.GenerateToken()
	assert.True(t, a.ValidateToken(tok))

	other := NewAuth("code", "other-secret")
	assert.False(t, other.ValidateToken(tok))

	assert.False(t, a.ValidateToken("garbage"))
	assert.False(t, a.ValidateToken("123.abc"))
}

func TestToken_Expiry(t *testing.T) {
	a := NewAuth("code", "secret")
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	tok := a.GenerateToken()
	assert.Equal(t, strconv.FormatInt(issued.Unix(), 10), tok[:len(strconv.FormatInt(issued.Unix(), 10))])

	a.now = func() time.Time { return issued.Add(TokenTTL - time.Minute) }
	assert.True(t, a.ValidateToken(tok))

	a.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	assert.False(t, a.ValidateToken(tok))
}

func TestAuthFlow(t *testing.T) {
	env := newEnv(t, NewAuth("letmein", "s3cret"), false)

	w := env.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/dashboard", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/verify", `{"code":"wrong"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])

	w = env.do(http.MethodPost, "/api/auth/verify", `{"code":"letmein"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	token := body["token"].(string)

	w = env.do(http.MethodGet, "/api/dashboard", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/sessions", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthDisabled(t *testing.T) {
	env := newEnv(t, NewAuth("", ""), false)
	w := env.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/auth/verify", `{}`, nil)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}
