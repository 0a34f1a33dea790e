package graphql

import (
	"context"

	"github.com/dtroode/usergraph/internal/model"
)

// UserService defines the user operations exposed as root fields.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, input model.CreateUserInput) (model.User, error)
	Update(ctx context.Context, input model.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
