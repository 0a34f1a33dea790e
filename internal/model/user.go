package model

import (
	"context"
)

// UserStore defines persistence operations for users.
//
// Lookups by identifier return a nil user (or false for Delete) both when the
// identifier is malformed and when nothing matches; neither case is an error.
type UserStore interface {
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, input CreateUserInput) (User, error)
	Update(ctx context.Context, input UpdateUserInput) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// IndexManager is implemented by stores that maintain their own indexes.
type IndexManager interface {
	EnsureIndexes(ctx context.Context) error
}

// User is the externally visible user entity.
type User struct {
	ID        string
	Name      string
	Email     string
	Age       *int
	CreatedAt string
}

// CreateUserInput holds the fields accepted on creation.
type CreateUserInput struct {
	Name  string
	Email string
	Age   *int
}

// UpdateUserInput holds a partial update. Nil fields are left unchanged.
// UnsetAge removes the stored age and takes precedence over Age.
type UpdateUserInput struct {
	ID       string
	Name     *string
	Email    *string
	Age      *int
	UnsetAge bool
}

// IsEmpty reports whether the update carries no field changes.
func (in UpdateUserInput) IsEmpty() bool {
	return in.Name == nil && in.Email == nil && in.Age == nil && !in.UnsetAge
}
