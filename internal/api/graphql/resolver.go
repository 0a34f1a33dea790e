package graphql

import (
	"context"

	"github.com/99designs/gqlgen/graphql"

	"github.com/dtroode/usergraph/internal/model"
)

// Resolver binds the root fields to the user service.
type Resolver struct {
	service UserService
}

func (r *Resolver) Query() *queryResolver       { return &queryResolver{r} }
func (r *Resolver) Mutation() *mutationResolver { return &mutationResolver{r} }

type queryResolver struct{ *Resolver }

type mutationResolver struct{ *Resolver }

func (r *queryResolver) Users(ctx context.Context) ([]model.User, error) {
	return r.service.List(ctx)
}

func (r *queryResolver) User(ctx context.Context, id string) (*model.User, error) {
	return r.service.Get(ctx, id)
}

func (r *mutationResolver) CreateUser(ctx context.Context, name string, email string, age *int) (model.User, error) {
	return r.service.Create(ctx, model.CreateUserInput{
		Name:  name,
		Email: email,
		Age:   age,
	})
}

// UpdateUser leaves omitted fields unchanged. An explicit null age clears it;
// explicit nulls for name and email are ignored since both are required.
func (r *mutationResolver) UpdateUser(ctx context.Context, id string, name *string, email *string, age graphql.Omittable[*int]) (*model.User, error) {
	input := model.UpdateUserInput{
		ID:    id,
		Name:  name,
		Email: email,
	}
	if value, ok := age.ValueOK(); ok {
		input.Age = value
		input.UnsetAge = value == nil
	}
	return r.service.Update(ctx, input)
}

func (r *mutationResolver) DeleteUser(ctx context.Context, id string) (bool, error) {
	return r.service.Delete(ctx, id)
}
