package graphql

import (
	"context"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"

	"github.com/dtroode/usergraph/internal/logger"
	"github.com/dtroode/usergraph/internal/metrics"
)

// OperationObserver receives the outcome of every GraphQL operation.
type OperationObserver interface {
	ObserveOperation(opType, status string, elapsed time.Duration)
}

var _ OperationObserver = (*metrics.Registry)(nil)

// NewHandler creates the GraphQL HTTP endpoint. observer may be nil.
func NewHandler(service UserService, log *logger.Logger, observer OperationObserver) http.Handler {
	srv := handler.New(NewExecutableSchema(service))

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetErrorPresenter(errorPresenter(log))
	srv.SetRecoverFunc(recoverFunc(log))
	srv.AroundResponses(observeResponses(log, observer))

	return srv
}

func observeResponses(log *logger.Logger, observer OperationObserver) graphql.ResponseMiddleware {
	return func(ctx context.Context, next graphql.ResponseHandler) *graphql.Response {
		start := time.Now()
		resp := next(ctx)
		if resp == nil {
			return nil
		}

		opType, opName := "invalid", ""
		if graphql.HasOperationContext(ctx) {
			oc := graphql.GetOperationContext(ctx)
			if !oc.Stats.OperationStart.IsZero() {
				start = oc.Stats.OperationStart
			}
			opName = oc.OperationName
			if oc.Operation != nil {
				opType = string(oc.Operation.Operation)
			}
		}
		elapsed := time.Since(start)

		status := metrics.StatusOK
		if len(resp.Errors) > 0 {
			status = metrics.StatusError
		}

		if observer != nil {
			observer.ObserveOperation(opType, status, elapsed)
		}

		log.Debug("GraphQL: operation completed",
			"type", opType,
			"operation", opName,
			"status", status,
			"errors", len(resp.Errors),
			"duration", elapsed)

		return resp
	}
}
