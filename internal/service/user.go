package service

import (
	"context"
	"fmt"

	"github.com/dtroode/usergraph/internal/logger"
	"github.com/dtroode/usergraph/internal/model"
)

// StoreFactory builds a store bound to the current database connection.
type StoreFactory func() (model.UserStore, error)

// User exposes the user operations. Every call builds a fresh store through
// the factory, so no state is shared between concurrent requests.
type User struct {
	newStore StoreFactory
	logger   *logger.Logger
}

func NewUser(newStore StoreFactory, logger *logger.Logger) *User {
	return &User{
		newStore: newStore,
		logger:   logger,
	}
}

func (s *User) List(ctx context.Context) ([]model.User, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	users, err := store.GetAll(ctx)
	if err != nil {
		s.logger.Error("User service: failed to list users",
			"error", err.Error())
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.logger.Debug("User service: listed users",
		"count", len(users))
	return users, nil
}

func (s *User) Get(ctx context.Context, id string) (*model.User, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	user, err := store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("User service: failed to get user",
			"id", id,
			"error", err.Error())
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *User) Create(ctx context.Context, input model.CreateUserInput) (model.User, error) {
	store, err := s.store()
	if err != nil {
		return model.User{}, err
	}

	user, err := store.Create(ctx, input)
	if err != nil {
		s.logger.Error("User service: failed to create user",
			"email", input.Email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User service: user created",
		"id", user.ID)
	return user, nil
}

func (s *User) Update(ctx context.Context, input model.UpdateUserInput) (*model.User, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	user, err := store.Update(ctx, input)
	if err != nil {
		s.logger.Error("User service: failed to update user",
			"id", input.ID,
			"error", err.Error())
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if user == nil {
		s.logger.Debug("User service: user to update not found",
			"id", input.ID)
		return nil, nil
	}

	s.logger.Info("User service: user updated",
		"id", user.ID)
	return user, nil
}

func (s *User) Delete(ctx context.Context, id string) (bool, error) {
	store, err := s.store()
	if err != nil {
		return false, err
	}

	deleted, err := store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("User service: failed to delete user",
			"id", id,
			"error", err.Error())
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User service: delete processed",
		"id", id,
		"deleted", deleted)
	return deleted, nil
}

func (s *User) store() (model.UserStore, error) {
	store, err := s.newStore()
	if err != nil {
		s.logger.Error("User service: failed to open user store",
			"error", err.Error())
		return nil, fmt.Errorf("failed to open user store: %w", err)
	}
	return store, nil
}
