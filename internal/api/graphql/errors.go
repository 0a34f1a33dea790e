package graphql

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/dtroode/usergraph/internal/logger"
	"github.com/dtroode/usergraph/internal/model"
)

// Error codes reported in the "code" extension.
const (
	CodeEmailTaken = "EMAIL_TAKEN"
	CodeInternal   = "INTERNAL_SERVER_ERROR"
)

const internalMessage = "internal server error"

// errorPresenter maps domain errors to client-facing GraphQL errors.
// Errors raised as *gqlerror.Error without a cause (parsing, validation,
// argument coercion) are passed through. Anything else is logged and masked.
func errorPresenter(log *logger.Logger) graphql.ErrorPresenterFunc {
	return func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)

		switch {
		case errors.Is(err, model.ErrDuplicateEmail):
			return withCode(&gqlerror.Error{
				Message:   model.ErrDuplicateEmail.Error(),
				Path:      gqlErr.Path,
				Locations: gqlErr.Locations,
			}, CodeEmailTaken)
		case gqlErr.Unwrap() == nil:
			return gqlErr
		default:
			log.Error("GraphQL: resolver failed",
				"path", gqlErr.Path.String(),
				"error", err.Error())
			return withCode(&gqlerror.Error{
				Message:   internalMessage,
				Path:      gqlErr.Path,
				Locations: gqlErr.Locations,
			}, CodeInternal)
		}
	}
}

func recoverFunc(log *logger.Logger) graphql.RecoverFunc {
	return func(ctx context.Context, p interface{}) error {
		log.Error("GraphQL: recovered from panic",
			"panic", fmt.Sprint(p),
			"stack", string(debug.Stack()))
		return withCode(&gqlerror.Error{Message: internalMessage}, CodeInternal)
	}
}

func withCode(err *gqlerror.Error, code string) *gqlerror.Error {
	if err.Extensions == nil {
		err.Extensions = map[string]interface{}{}
	}
	err.Extensions["code"] = code
	return err
}
