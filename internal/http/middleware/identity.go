package middleware

import (
	"github.com/gofiber/fiber/v2"

	"enrollapi/internal/authz"
)

const (
	// ActorHeader carries the authenticated actor ID, set by the identity
	// provider fronting this service. OAuth exchange happens upstream.
	ActorHeader = "X-Actor-ID"
	// ClassHeader carries the caller class ("applicant" or "approver").
	ClassHeader = "X-Identity-Class"
	// IdentityLocalKey is the key used to store the identity in Fiber's context locals.
	IdentityLocalKey = "identity"
)

// Identity resolves the caller identity from request headers and stores it
// in context locals. Requests without an actor still pass; handlers that
// need authentication check Identity.Authenticated themselves.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := authz.Identity{
			ActorID: c.Get(ActorHeader),
			Class:   authz.Class(c.Get(ClassHeader)),
		}
		if id.Class != authz.ClassApprover {
			// Anything but an explicit approver grant is applicant-side.
			id.Class = authz.ClassApplicant
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFromCtx extracts the identity stored by Identity.
func IdentityFromCtx(c *fiber.Ctx) authz.Identity {
	if v := c.Locals(IdentityLocalKey); v != nil {
		if id, ok := v.(authz.Identity); ok {
			return id
		}
	}
	return authz.Identity{Class: authz.ClassApplicant}
}
