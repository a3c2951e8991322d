package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/vidshare/internal/errors"
	"github.com/weiwangfds/vidshare/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// AdminUserKey is the gin context key holding the authenticated admin name.
const AdminUserKey = "admin_user"

// Authenticator checks admin credentials.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// AccountAuthenticator checks credentials against a fixed set of accounts.
// Usernames match case-insensitively, since viper lowercases the keys of
// [admin.accounts]. A stored password with a bcrypt prefix ($2a$, $2b$,
// $2y$) is compared as a hash, anything else as plain text.
type AccountAuthenticator struct {
	accounts map[string]string
}

// NewAccountAuthenticator copies accounts.
func NewAccountAuthenticator(accounts map[string]string) *AccountAuthenticator {
	copied := make(map[string]string, len(accounts))
	for user, pass := range accounts {
		copied[strings.ToLower(user)] = pass
	}
	return &AccountAuthenticator{accounts: copied}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (a *AccountAuthenticator) Authenticate(username, password string) bool {
	stored, ok := a.accounts[strings.ToLower(username)]
	if !ok || stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// AdminAuth gates a route group behind HTTP Basic auth. Failed requests get
// a 401 challenge and never reach the handlers.
func AdminAuth(auth Authenticator, realm string) gin.HandlerFunc {
	if realm == "" {
		realm = "Authorization Required"
	}
	challenge := "Basic realm=" + strconv.Quote(realm)

	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !auth.Authenticate(user, pass) {
			if ok {
				logger.WithField("username", user).WithField("client_ip", c.ClientIP()).Warn("admin authentication failed")
			}
			c.Header("WWW-Authenticate", challenge)
			c.String(http.StatusUnauthorized, apperrors.GetErrorMessage(apperrors.ErrUnauthorized))
			c.Abort()
			return
		}
		c.Set(AdminUserKey, user)
		c.Next()
	}
}
