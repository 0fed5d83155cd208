package main

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/generate"
)

// ownedRoadmap loads a roadmap that belongs to the session user. Roadmaps
// of other users are reported as missing.
func (s *server) ownedRoadmap(ctx context.Context, userID, roadmapID string) (*roadmap.Roadmap, error) {
	r, err := s.store.GetRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if r == nil || r.UserID != userID {
		return nil, roadmap.ErrRoadmapNotFound
	}
	return r, nil
}

func (s *server) seedView(c fiber.Ctx) error {
	e := s.newEngine()
	e.Load(s.seed)
	return c.JSON(e.View())
}

// layoutGraph renders a posted graph without storing it. Malformed edges
// are dropped from the layout, not rejected.
func (s *server) layoutGraph(c fiber.Ctx) error {
	var r roadmap.Roadmap
	if err := c.Bind().JSON(&r); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	r.FillDefaults()
	e := s.newEngine()
	e.Load(&r)
	return c.JSON(e.View())
}

func (s *server) listRoadmaps(c fiber.Ctx) error {
	list, err := s.store.ListRoadmaps(c.Context(), sessionFrom(c).User.ID)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(list)
}

func (s *server) saveRoadmap(c fiber.Ctx) error {
	userID := sessionFrom(c).User.ID

	var r roadmap.Roadmap
	if err := c.Bind().JSON(&r); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if r.ID != "" {
		existing, err := s.store.GetRoadmap(c.Context(), r.ID)
		if err != nil {
			return s.sendError(c, err)
		}
		if existing != nil && existing.UserID != userID {
			return s.sendError(c, roadmap.ErrRoadmapNotFound)
		}
	}
	r.UserID = userID

	saved, err := s.store.SaveRoadmap(c.Context(), &r)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (s *server) copySeed(c fiber.Ctx) error {
	r := s.seed.Clone()
	r.ID = ""
	r.UserID = sessionFrom(c).User.ID

	saved, err := s.store.SaveRoadmap(c.Context(), r)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

type generateBody struct {
	generate.Request
	RoadmapID string `json:"roadmap_id"`
}

// generateRoadmap drafts a roadmap and stores it. With roadmap_id the
// stored roadmap is replaced, but only once generation has succeeded.
func (s *server) generateRoadmap(c fiber.Ctx) error {
	if s.generator == nil {
		return s.sendError(c, errGenerationDisabled)
	}
	userID := sessionFrom(c).User.ID

	var body generateBody
	if err := c.Bind().JSON(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if body.RoadmapID != "" {
		if _, err := s.ownedRoadmap(c.Context(), userID, body.RoadmapID); err != nil {
			return s.sendError(c, err)
		}
	}

	r, err := s.generator.Generate(c.Context(), body.Request)
	if err != nil {
		return s.sendError(c, err)
	}
	r.ID = body.RoadmapID
	r.UserID = userID

	saved, err := s.store.SaveRoadmap(c.Context(), r)
	if err != nil {
		return s.sendError(c, err)
	}

	status := fiber.StatusCreated
	if body.RoadmapID != "" {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(saved)
}

func (s *server) getRoadmap(c fiber.Ctx) error {
	r, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(r)
}

func (s *server) deleteRoadmap(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, id); err != nil {
		if errors.Is(err, roadmap.ErrRoadmapNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return s.sendError(c, err)
	}
	if err := s.store.DeleteRoadmap(c.Context(), id); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) viewRoadmap(c fiber.Ctx) error {
	r, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	e := s.newEngine()
	e.Load(r)
	return c.JSON(e.View())
}

func (s *server) moduleDetail(c fiber.Ctx) error {
	r, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	e := s.newEngine()
	e.Load(r)
	d := e.Detail(c.Params("moduleId"))
	if d == nil {
		return s.sendError(c, roadmap.ErrModuleNotFound)
	}
	return c.JSON(d)
}

func (s *server) updateModule(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, id); err != nil {
		return s.sendError(c, err)
	}
	var u roadmap.ModuleUpdate
	if err := c.Bind().JSON(&u); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := s.store.UpdateModule(c.Context(), id, c.Params("moduleId"), u); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) addPrerequisite(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, id); err != nil {
		return s.sendError(c, err)
	}
	var p roadmap.Prerequisite
	if err := c.Bind().JSON(&p); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := s.store.AddPrerequisite(c.Context(), id, p); err != nil {
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": p.Key()})
}

func (s *server) deletePrerequisite(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.ownedRoadmap(c.Context(), sessionFrom(c).User.ID, id); err != nil {
		return s.sendError(c, err)
	}
	var p roadmap.Prerequisite
	if err := c.Bind().JSON(&p); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := s.store.DeletePrerequisite(c.Context(), id, p); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
