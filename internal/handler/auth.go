package handler

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenTTL validity of an issued access token.
const TokenTTL = 7 * 24 * time.Hour

type VerifyRequest struct {
	Code string `json:"code"`
}

// Auth gates the dashboard behind a shared access code. With an empty code
// every request passes.
type Auth struct {
	accessCode string
	secret     []byte
	now        func() time.Time
}

// NewAuth returns an Auth. An empty secret is replaced by a random
// per-process one, so tokens do not survive a restart.
func NewAuth(accessCode, secret string) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Auth{accessCode: accessCode, secret: key, now: time.Now}
}

func (a *Auth) Enabled() bool { return a.accessCode != "" }

// GenerateToken issues a "timestamp.signature" token.
func (a *Auth) GenerateToken() string {
	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	return fmt.Sprintf("%s.%s", timestamp, a.sign(timestamp))
}

// ValidateToken checks the signature and the 7-day expiry.
func (a *Auth) ValidateToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}
	timestamp, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(a.sign(timestamp))) {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	return a.now().Sub(time.Unix(ts, 0)) <= TokenTTL
}

func (a *Auth) sign(timestamp string) string {
	h := hmac.New(sha256.New, a.secret)
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify exchanges the access code for a token.
func (a *Auth) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	if !a.Enabled() || hmac.Equal([]byte(req.Code), []byte(a.accessCode)) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "verified",
			"token":   a.GenerateToken(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": "invalid access code",
	})
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		if !a.ValidateToken(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token invalid or expired"})
			return
		}

		c.Next()
	}
}
