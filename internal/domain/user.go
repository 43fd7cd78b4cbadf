package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string // argon2id
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessengerLink connects a user to an external chat identity so
// notifications can be delivered to them.
type MessengerLink struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Platform   string // "telegram", "slack"
	ExternalID string // chat ID on the platform
	CreatedAt  time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// ListByIDs returns users in the order of the given IDs, skipping unknown IDs.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	// Delete removes the user and cascades to their projects and tasks.
	Delete(ctx context.Context, id uuid.UUID) error

	// Messenger links
	SaveMessengerLink(ctx context.Context, link *MessengerLink) error
	ListMessengerLinks(ctx context.Context, userID uuid.UUID) ([]*MessengerLink, error)
	DeleteMessengerLink(ctx context.Context, id uuid.UUID) error
}
