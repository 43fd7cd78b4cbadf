// Package access implements project-level access control: project
// creation, participant membership, and the single visibility check every
// other operation builds on.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/notify"
)

// Service owns project records and participant membership. All
// dependencies are constructor-injected interfaces so the authorization
// logic is testable without a database.
type Service struct {
	users    domain.UserRepository
	projects domain.ProjectRepository
	notifier notify.Dispatcher
}

// NewService creates the access-control service.
func NewService(users domain.UserRepository, projects domain.ProjectRepository, notifier notify.Dispatcher) *Service {
	return &Service{
		users:    users,
		projects: projects,
		notifier: notifier,
	}
}

// CreateProject creates a project owned by ownerID and notifies the owner.
// Fails with ErrNotFound when the owner does not resolve to a known user.
func (s *Service) CreateProject(ctx context.Context, ownerID uuid.UUID, title, color string) (*domain.Project, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("access.CreateProject: owner: %w", err)
	}

	p, err := domain.NewProject(owner.ID, title, color)
	if err != nil {
		return nil, fmt.Errorf("access.CreateProject: %w: %w", domain.ErrValidation, err)
	}

	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("access.CreateProject: %w", err)
	}

	s.notifier.Notify(ctx, owner.ID, fmt.Sprintf("New project created: %q", p.Title))

	return p, nil
}

// AuthorizedProject returns the project with its tasks when userID is the
// owner or a participant. Any other outcome, including nonexistence, is
// ErrNotFound: unauthorized callers cannot probe for project existence.
func (s *Service) AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	p, err := s.projects.GetWithTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("access.AuthorizedProject: %w", err)
	}

	if !p.HasMember(userID) {
		denial := domain.AccessDenied(fmt.Sprintf("user %s is not a member of project %s", userID, projectID))
		log.Debug().
			Stringer("project_id", projectID).
			Stringer("user_id", userID).
			Msg("access: project visibility denied")
		return nil, fmt.Errorf("access.AuthorizedProject: %w", denial)
	}

	return p, nil
}

// ProjectsForUser returns every project the user owns or participates in.
func (s *Service) ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	projects, err := s.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("access.ProjectsForUser: %w", err)
	}

	return projects, nil
}

// AddParticipant grants participantID access to the project. Only the
// project owner may call it; a non-owner caller gets the same ErrNotFound
// an unauthorized reader would. Duplicate grants fail with ErrConflict,
// enforced by the storage uniqueness constraint rather than the membership
// check below, so two concurrent adds cannot both succeed.
func (s *Service) AddParticipant(ctx context.Context, projectID, callerID, participantID uuid.UUID) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("access.AddParticipant: %w", err)
	}

	if p.OwnerID != callerID {
		denial := domain.AccessDenied(fmt.Sprintf("user %s is not the owner of project %s", callerID, projectID))
		log.Debug().
			Stringer("project_id", projectID).
			Stringer("caller_id", callerID).
			Msg("access: participant add denied")
		return nil, fmt.Errorf("access.AddParticipant: %w", denial)
	}

	participant, err := s.users.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("access.AddParticipant: participant: %w", err)
	}

	// The owner is a member already; granting them participation would
	// duplicate membership.
	if participant.ID == p.OwnerID {
		return nil, fmt.Errorf("access.AddParticipant: owner cannot be a participant: %w", domain.ErrConflict)
	}
	if p.IsParticipant(participant.ID) {
		return nil, fmt.Errorf("access.AddParticipant: already a participant: %w", domain.ErrConflict)
	}

	if err := s.projects.AddParticipant(ctx, p.ID, participant.ID); err != nil {
		return nil, fmt.Errorf("access.AddParticipant: %w", err)
	}

	p.Participants = append(p.Participants, participant.ID)

	return p, nil
}

// ProjectUsers returns the project's members, owner first, each exactly
// once. Authorization is identical to AuthorizedProject.
func (s *Service) ProjectUsers(ctx context.Context, projectID, callerID uuid.UUID) ([]*domain.User, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("access.ProjectUsers: %w", err)
	}

	if !p.HasMember(callerID) {
		denial := domain.AccessDenied(fmt.Sprintf("user %s is not a member of project %s", callerID, projectID))
		return nil, fmt.Errorf("access.ProjectUsers: %w", denial)
	}

	users, err := s.users.ListByIDs(ctx, p.MemberIDs())
	if err != nil {
		return nil, fmt.Errorf("access.ProjectUsers: %w", err)
	}

	return users, nil
}
