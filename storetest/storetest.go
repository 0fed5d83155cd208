// Package storetest holds the behaviour every roadmap.Store backend must
// share. Backends call Run from their own tests with a fresh store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/roadmap"
)

// Run exercises s against the roadmap.Store contract. The store's schema
// must already exist and be empty.
func Run(t *testing.T, s roadmap.Store) {
	t.Helper()

	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, s) })
	t.Run("SaveAssignsID", func(t *testing.T) { testSaveAssignsID(t, s) })
	t.Run("SaveReplaces", func(t *testing.T) { testSaveReplaces(t, s) })
	t.Run("SaveRejectsInvalid", func(t *testing.T) { testSaveRejectsInvalid(t, s) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, s) })
	t.Run("List", func(t *testing.T) { testList(t, s) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, s) })
	t.Run("UpdateModule", func(t *testing.T) { testUpdateModule(t, s) })
	t.Run("Prerequisites", func(t *testing.T) { testPrerequisites(t, s) })
	t.Run("Submissions", func(t *testing.T) { testSubmissions(t, s) })
}

func seeded(id, userID string) *roadmap.Roadmap {
	r := roadmap.DefaultSeed()
	r.ID = id
	r.UserID = userID
	r.Modules[0].Resources = []string{"https://docs.python.org/3/tutorial/"}
	return r
}

func testSaveAndGet(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	want := seeded("save-get", "user-1")

	saved, err := s.SaveRoadmap(ctx, want)
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.GetRoadmap(ctx, "save-get")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Goal, got.Goal)
	assert.Equal(t, want.Modules, got.Modules)
	assert.Equal(t, want.Prerequisites, got.Prerequisites)
	assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Second)
}

func testSaveAssignsID(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	r := seeded("", "user-1")

	saved, err := s.SaveRoadmap(ctx, r)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Empty(t, r.ID, "input is left untouched")

	got, err := s.GetRoadmap(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Modules, len(r.Modules))
}

func testSaveReplaces(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	first, err := s.SaveRoadmap(ctx, seeded("replace", "user-1"))
	require.NoError(t, err)

	next := &roadmap.Roadmap{
		ID:     "replace",
		UserID: "user-1",
		Title:  "Go Roadmap",
		Modules: []roadmap.Module{
			{ID: "go-1", Label: "Tour of Go", Status: roadmap.StatusActive, Progress: 10},
			{ID: "go-2", Label: "Concurrency", Status: roadmap.StatusLocked},
		},
		Prerequisites: []roadmap.Prerequisite{{Source: "go-1", Target: "go-2"}},
	}
	_, err = s.SaveRoadmap(ctx, next)
	require.NoError(t, err)

	got, err := s.GetRoadmap(ctx, "replace")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go Roadmap", got.Title)
	require.Len(t, got.Modules, 2)
	assert.Equal(t, "go-1", got.Modules[0].ID)
	assert.Equal(t, []string{}, got.Modules[0].Resources)
	assert.Equal(t, next.Prerequisites, got.Prerequisites)
	assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Second, "creation time survives a replace")
}

func testSaveRejectsInvalid(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	_, err := s.SaveRoadmap(ctx, seeded("valid", "user-1"))
	require.NoError(t, err)

	bad := seeded("valid", "user-1")
	bad.Title = "should not be stored"
	bad.Prerequisites = append(bad.Prerequisites, roadmap.Prerequisite{Source: "10", Target: "1"})

	_, err = s.SaveRoadmap(ctx, bad)
	assert.ErrorIs(t, err, roadmap.ErrCycleDetected)

	got, err := s.GetRoadmap(ctx, "valid")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Backend Engineering Roadmap", got.Title)
	assert.Len(t, got.Prerequisites, 11)
}

func testGetMissing(t *testing.T, s roadmap.Store) {
	got, err := s.GetRoadmap(context.Background(), "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func testList(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	_, err := s.SaveRoadmap(ctx, seeded("list-a", "lister"))
	require.NoError(t, err)
	_, err = s.SaveRoadmap(ctx, &roadmap.Roadmap{ID: "list-b", UserID: "lister", Title: "Empty"})
	require.NoError(t, err)
	_, err = s.SaveRoadmap(ctx, seeded("list-c", "someone-else"))
	require.NoError(t, err)

	list, err := s.ListRoadmaps(ctx, "lister")
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]roadmap.Summary{}
	for _, sum := range list {
		byID[sum.ID] = sum
	}
	assert.Equal(t, 10, byID["list-a"].Modules)
	assert.Equal(t, 3, byID["list-a"].Completed)
	assert.Equal(t, 30, byID["list-a"].OverallProgress)
	assert.Equal(t, 0, byID["list-b"].Modules)
	assert.Equal(t, 0, byID["list-b"].OverallProgress)

	none, err := s.ListRoadmaps(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testDelete(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	_, err := s.SaveRoadmap(ctx, seeded("delete-me", "user-1"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRoadmap(ctx, "delete-me"))
	got, err := s.GetRoadmap(ctx, "delete-me")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, s.DeleteRoadmap(ctx, "delete-me"), "deleting twice is fine")
}

func testUpdateModule(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	_, err := s.SaveRoadmap(ctx, seeded("update", "user-1"))
	require.NoError(t, err)

	completed := roadmap.StatusCompleted
	full := 100
	require.NoError(t, s.UpdateModule(ctx, "update", "4", roadmap.ModuleUpdate{Status: &completed, Progress: &full}))

	progress := 55
	require.NoError(t, s.UpdateModule(ctx, "update", "5", roadmap.ModuleUpdate{Progress: &progress}))

	got, err := s.GetRoadmap(ctx, "update")
	require.NoError(t, err)
	m4, _ := got.Module("4")
	assert.Equal(t, roadmap.StatusCompleted, m4.Status)
	assert.Equal(t, 100, m4.Progress)
	m5, _ := got.Module("5")
	assert.Equal(t, roadmap.StatusActive, m5.Status, "status untouched when not set")
	assert.Equal(t, 55, m5.Progress)
	assert.Equal(t, 40, got.OverallProgress())

	err = s.UpdateModule(ctx, "update", "missing", roadmap.ModuleUpdate{Progress: &progress})
	assert.ErrorIs(t, err, roadmap.ErrModuleNotFound)

	bogus := roadmap.Status("paused")
	err = s.UpdateModule(ctx, "update", "4", roadmap.ModuleUpdate{Status: &bogus})
	assert.ErrorIs(t, err, roadmap.ErrInvalidModule)
}

func testPrerequisites(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	_, err := s.SaveRoadmap(ctx, seeded("prereq", "user-1"))
	require.NoError(t, err)

	extra := roadmap.Prerequisite{Source: "2", Target: "6"}
	require.NoError(t, s.AddPrerequisite(ctx, "prereq", extra))

	got, err := s.GetRoadmap(ctx, "prereq")
	require.NoError(t, err)
	require.Len(t, got.Prerequisites, 12)
	assert.Equal(t, extra, got.Prerequisites[11], "new prerequisites go last")

	assert.ErrorIs(t, s.AddPrerequisite(ctx, "prereq", extra), roadmap.ErrDuplicatePrerequisite)
	assert.ErrorIs(t, s.AddPrerequisite(ctx, "prereq", roadmap.Prerequisite{Source: "10", Target: "1"}), roadmap.ErrCycleDetected)
	assert.ErrorIs(t, s.AddPrerequisite(ctx, "prereq", roadmap.Prerequisite{Source: "1", Target: "99"}), roadmap.ErrDanglingPrerequisite)
	assert.ErrorIs(t, s.AddPrerequisite(ctx, "missing", extra), roadmap.ErrRoadmapNotFound)

	require.NoError(t, s.DeletePrerequisite(ctx, "prereq", extra))
	require.NoError(t, s.DeletePrerequisite(ctx, "prereq", extra))

	got, err = s.GetRoadmap(ctx, "prereq")
	require.NoError(t, err)
	assert.Len(t, got.Prerequisites, 11)
}

func testSubmissions(t *testing.T, s roadmap.Store) {
	ctx := context.Background()
	out := "Hello, World!\n"
	ms, kb := 12, 3400

	first, err := s.SaveSubmission(ctx, &roadmap.Submission{
		UserID:     "coder",
		Language:   "python",
		LanguageID: 71,
		SourceCode: `print("Hello, World!")`,
		Status:     "Accepted",
		Stdout:     &out,
		TimeMs:     &ms,
		MemoryKb:   &kb,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.SaveSubmission(ctx, &roadmap.Submission{
		UserID:     "coder",
		Language:   "go",
		LanguageID: 60,
		SourceCode: "package main",
		Status:     "Compilation Error",
		CreatedAt:  first.CreatedAt.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = s.SaveSubmission(ctx, &roadmap.Submission{UserID: "other", Language: "go", LanguageID: 60, Status: "Accepted"})
	require.NoError(t, err)

	list, err := s.ListSubmissions(ctx, "coder", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Nil(t, list[0].Stdout)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[1].Stdout)
	assert.Equal(t, out, *list[1].Stdout)
	require.NotNil(t, list[1].TimeMs)
	assert.Equal(t, 12, *list[1].TimeMs)

	limited, err := s.ListSubmissions(ctx, "coder", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
