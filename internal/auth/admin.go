package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/pkg/util"
)

// AdminHeader carries the shared secret on administrative requests.
const AdminHeader = "X-Admin-Secret"

// AdminGuard protects the maintenance endpoints with a shared secret. There
// are no user accounts in this service; the dashboard reads are public and
// only destructive operations are gated.
type AdminGuard struct {
	secret string
}

// NewAdminGuard builds the guard. An empty secret disables the admin
// surface entirely.
func NewAdminGuard(secret string) *AdminGuard {
	return &AdminGuard{secret: secret}
}

// Handle rejects requests without the correct secret.
func (g *AdminGuard) Handle(c *fiber.Ctx) error {
	if g.secret == "" {
		return util.NewUnauthorized("admin endpoints are disabled")
	}
	provided := c.Get(AdminHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(g.secret)) != 1 {
		return util.NewUnauthorized("invalid admin secret")
	}
	return c.Next()
}
