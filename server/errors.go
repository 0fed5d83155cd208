package main

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/generate"
	"github.com/meikuraledutech/roadmap/identity"
	"github.com/meikuraledutech/roadmap/judge"
	"github.com/meikuraledutech/roadmap/llm"
	"github.com/meikuraledutech/roadmap/practice"
)

var (
	errGenerationDisabled = errors.New("AI service is not configured")
	errIdentityDisabled   = errors.New("identity service is not configured")
	errUnauthorized       = errors.New("missing or invalid authorization")
)

func fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// sendError maps domain errors to HTTP responses.
func (s *server) sendError(c fiber.Ctx, err error) error {
	var (
		rateLimit   *llm.ErrRateLimit
		payment     *llm.ErrPaymentRequired
		unavailable *llm.ErrProviderUnavailable
		maxTokens   *llm.ErrMaxTokensExceeded
		badReply    *llm.ErrInvalidResponse
		invalid     *generate.InvalidRoadmapError
		judgeStatus *judge.StatusError
		idStatus    *identity.StatusError
	)

	switch {
	case errors.Is(err, roadmap.ErrRoadmapNotFound):
		return fail(c, fiber.StatusNotFound, "roadmap not found")
	case errors.Is(err, roadmap.ErrModuleNotFound):
		return fail(c, fiber.StatusNotFound, "module not found")
	case errors.Is(err, practice.ErrProblemNotFound):
		return fail(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, roadmap.ErrDuplicatePrerequisite), errors.Is(err, roadmap.ErrDuplicateModule):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, roadmap.ErrCycleDetected):
		return fail(c, fiber.StatusUnprocessableEntity, "cycle detected")
	case errors.Is(err, roadmap.ErrDanglingPrerequisite), errors.Is(err, roadmap.ErrInvalidModule):
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, generate.ErrGoalRequired):
		return fail(c, fiber.StatusBadRequest, "Goal is required")
	case errors.Is(err, judge.ErrInvalidSubmission):
		return fail(c, fiber.StatusBadRequest, "Source code and language ID are required")

	case errors.Is(err, identity.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, identity.ErrTokenExpired):
		return fail(c, fiber.StatusUnauthorized, "session expired")
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, errUnauthorized):
		return fail(c, fiber.StatusUnauthorized, errUnauthorized.Error())
	case errors.Is(err, identity.ErrConfirmationRequired):
		return fail(c, fiber.StatusForbidden, "email confirmation required")

	case errors.As(err, &rateLimit):
		return fail(c, fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	case errors.As(err, &payment):
		return fail(c, fiber.StatusPaymentRequired, "AI credits exhausted. Please add funds.")
	case errors.As(err, &invalid), errors.As(err, &maxTokens), errors.As(err, &badReply):
		s.logger.Warn("server: unusable roadmap from model", "error", err)
		return fail(c, fiber.StatusBadGateway, "Failed to parse roadmap. Please try again.")
	case errors.As(err, &unavailable):
		s.logger.Error("server: ai gateway error", "error", err)
		return fail(c, fiber.StatusBadGateway, "AI service error")
	case errors.As(err, &judgeStatus):
		s.logger.Error("server: code execution error", "status", judgeStatus.Code, "body", judgeStatus.Body)
		return fail(c, fiber.StatusBadGateway, judgeStatus.Error())
	case errors.As(err, &idStatus):
		return fail(c, fiber.StatusBadGateway, idStatus.Message)

	case errors.Is(err, errGenerationDisabled), errors.Is(err, errIdentityDisabled),
		errors.Is(err, judge.ErrNotConfigured), errors.Is(err, identity.ErrNotConfigured):
		return fail(c, fiber.StatusServiceUnavailable, err.Error())
	}

	s.logger.Error("server: request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return fail(c, fiber.StatusInternalServerError, err.Error())
}
