package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/youthbridge/youthbridge/internal/config"
	"go.uber.org/fx"
)

// Cookie names match what the frontend's auth provider already issues, so
// the browser session survives the redirect through a payment provider.
const (
	AccessCookieName  = "sb-access-token"
	RefreshCookieName = "sb-refresh-token"
)

const DefaultLifetime = 7 * 24 * time.Hour

// Manager bridges the external identity provider's tokens into HTTP-only
// cookies.
type Manager struct {
	secure   bool
	lifetime time.Duration
}

var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
)

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		secure:   cfg.AuthCookieSecure,
		lifetime: DefaultLifetime,
	}
}

// Tokens reads the token pair from cookies. Both must be present.
func (m *Manager) Tokens(c *gin.Context) (accessToken, refreshToken string, ok bool) {
	accessToken, err := c.Cookie(AccessCookieName)
	if err != nil || strings.TrimSpace(accessToken) == "" {
		return "", "", false
	}
	refreshToken, err = c.Cookie(RefreshCookieName)
	if err != nil || strings.TrimSpace(refreshToken) == "" {
		return "", "", false
	}
	return accessToken, refreshToken, true
}

func (m *Manager) Set(c *gin.Context, accessToken, refreshToken string) {
	maxAge := int(m.lifetime.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, accessToken, maxAge, "/", "", m.secure, true)
	c.SetCookie(RefreshCookieName, refreshToken, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, "", -1, "/", "", m.secure, true)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", m.secure, true)
}
