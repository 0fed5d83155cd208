package main

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/roadmap/identity"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *server) signIn(c fiber.Ctx) error {
	if s.identity == nil {
		return s.sendError(c, errIdentityDisabled)
	}
	var body credentials
	if err := c.Bind().JSON(&body); err != nil || body.Email == "" || body.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}
	sess, err := s.identity.SignIn(c.Context(), body.Email, body.Password)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(sess)
}

func (s *server) signUp(c fiber.Ctx) error {
	if s.identity == nil {
		return s.sendError(c, errIdentityDisabled)
	}
	var body credentials
	if err := c.Bind().JSON(&body); err != nil || body.Email == "" || body.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}
	sess, err := s.identity.SignUp(c.Context(), body.Email, body.Password, body.FullName)
	if errors.Is(err, identity.ErrConfirmationRequired) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "check your email to confirm your account"})
	}
	if err != nil {
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *server) signOut(c fiber.Ctx) error {
	if err := s.identity.SignOut(c.Context(), sessionFrom(c)); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) me(c fiber.Ctx) error {
	sess := sessionFrom(c)
	if err := s.identity.LoadProfile(c.Context(), sess); err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(fiber.Map{"user": sess.User, "profile": sess.Profile})
}
