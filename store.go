package roadmap

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected         = errors.New("roadmap: cycle detected, graph is not acyclic")
	ErrRoadmapNotFound       = errors.New("roadmap: roadmap not found")
	ErrModuleNotFound        = errors.New("roadmap: module not found")
	ErrDuplicateModule       = errors.New("roadmap: duplicate module id")
	ErrInvalidModule         = errors.New("roadmap: invalid module")
	ErrDanglingPrerequisite  = errors.New("roadmap: prerequisite references unknown module")
	ErrDuplicatePrerequisite = errors.New("roadmap: duplicate prerequisite")
)

// Store defines the contract for persisting roadmaps and practice history.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Roadmaps (bulk operations)
	SaveRoadmap(ctx context.Context, r *Roadmap) (*Roadmap, error)
	GetRoadmap(ctx context.Context, roadmapID string) (*Roadmap, error)
	ListRoadmaps(ctx context.Context, userID string) ([]Summary, error)
	DeleteRoadmap(ctx context.Context, roadmapID string) error

	// Modules
	UpdateModule(ctx context.Context, roadmapID, moduleID string, u ModuleUpdate) error

	// Prerequisites
	AddPrerequisite(ctx context.Context, roadmapID string, p Prerequisite) error
	DeletePrerequisite(ctx context.Context, roadmapID string, p Prerequisite) error

	// Practice history
	SaveSubmission(ctx context.Context, s *Submission) (*Submission, error)
	ListSubmissions(ctx context.Context, userID string, limit int) ([]Submission, error)
}
