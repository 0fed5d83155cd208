package main

import (
	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/judge"
)

type executeBody struct {
	SourceCode string `json:"sourceCode"`
	LanguageID int    `json:"languageId"`
	Language   string `json:"language"`
	Stdin      string `json:"stdin"`
	ProblemID  string `json:"problemId"`
}

// execute runs code in the sandbox and records the run in the user's
// practice history.
func (s *server) execute(c fiber.Ctx) error {
	var body executeBody
	if err := c.Bind().JSON(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	lang, ok := resolveLanguage(body.LanguageID, body.Language)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "unsupported language")
	}
	if body.ProblemID != "" {
		if _, err := s.problems.Get(body.ProblemID); err != nil {
			return fail(c, fiber.StatusBadRequest, "unknown problem")
		}
	}

	res, err := s.judge.Execute(c.Context(), judge.Submission{
		SourceCode: body.SourceCode,
		LanguageID: lang.ID,
		Stdin:      body.Stdin,
	})
	if err != nil {
		return s.sendError(c, err)
	}

	sub, err := s.store.SaveSubmission(c.Context(), &roadmap.Submission{
		UserID:        sessionFrom(c).User.ID,
		ProblemID:     body.ProblemID,
		Language:      lang.Key,
		LanguageID:    lang.ID,
		SourceCode:    body.SourceCode,
		Status:        res.StatusDescription,
		Stdout:        res.Stdout,
		Stderr:        res.Stderr,
		CompileOutput: res.CompileOutput,
		TimeMs:        res.TimeMs,
		MemoryKb:      res.MemoryKb,
	})
	if err != nil {
		return s.sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"result":        res,
		"output":        judge.FormatOutput(res),
		"submission_id": sub.ID,
	})
}

// resolveLanguage prefers the numeric id. Ids missing from the table are
// passed through since Judge0 knows more languages than the console lists.
func resolveLanguage(id int, name string) (judge.Language, bool) {
	if id != 0 {
		if l, ok := judge.ByID(id); ok {
			return l, true
		}
		return judge.Language{Key: name, Name: name, ID: id}, true
	}
	if name == "" {
		return judge.Language{}, true
	}
	return judge.Lookup(name)
}

func (s *server) listProblems(c fiber.Ctx) error {
	return c.JSON(s.problems.List())
}

func (s *server) getProblem(c fiber.Ctx) error {
	p, err := s.problems.Get(c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(p)
}

func (s *server) listSubmissions(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", 0)
	list, err := s.store.ListSubmissions(c.Context(), sessionFrom(c).User.ID, limit)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(list)
}
