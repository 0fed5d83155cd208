package main

import (
	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/roadmap/identity"
)

const sessionKey = "session"

// requireSession verifies the bearer token and stores the session in locals.
func (s *server) requireSession(c fiber.Ctx) error {
	if s.identity == nil {
		return s.sendError(c, errIdentityDisabled)
	}
	token := identity.ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return s.sendError(c, errUnauthorized)
	}
	sess, err := s.identity.Verify(token)
	if err != nil {
		return s.sendError(c, err)
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func sessionFrom(c fiber.Ctx) *identity.Session {
	sess, _ := c.Locals(sessionKey).(*identity.Session)
	return sess
}
