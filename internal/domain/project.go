package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID      uuid.UUID
	OwnerID uuid.UUID // immutable after creation
	Title   string
	Color   string

	// Participants are users granted access by the owner. The owner is
	// never part of this set; repositories exclude it on read and reject
	// it on write.
	Participants []uuid.UUID

	// Tasks are populated by reads that load the full project.
	Tasks []*Task

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProject creates a Project with validated required fields.
func NewProject(ownerID uuid.UUID, title, color string) (*Project, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("project: owner ID is required")
	}
	if title == "" {
		return nil, errors.New("project: title is required")
	}
	if color == "" {
		color = "#808080"
	}
	now := time.Now()
	return &Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsParticipant reports whether the user is in the participant set.
func (p *Project) IsParticipant(userID uuid.UUID) bool {
	for _, id := range p.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// HasMember reports whether the user is the owner or a participant.
func (p *Project) HasMember(userID uuid.UUID) bool {
	return p.OwnerID == userID || p.IsParticipant(userID)
}

// MemberIDs returns the owner followed by participants, each exactly once.
func (p *Project) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Participants)+1)
	ids = append(ids, p.OwnerID)
	seen := map[uuid.UUID]struct{}{p.OwnerID: {}}
	for _, id := range p.Participants {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	// GetByID loads the project with its participant set, without tasks.
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	// GetWithTasks loads the project with participants and all its tasks.
	GetWithTasks(ctx context.Context, id uuid.UUID) (*Project, error)
	// ListForUser returns every project the user owns or participates in.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	// AddParticipant inserts into the participant set. A duplicate insert
	// fails with ErrConflict via the storage uniqueness constraint, which
	// closes the check-then-insert race under concurrent requests.
	AddParticipant(ctx context.Context, projectID, userID uuid.UUID) error
	// Delete removes the project and cascades to its tasks.
	Delete(ctx context.Context, id uuid.UUID) error
}
