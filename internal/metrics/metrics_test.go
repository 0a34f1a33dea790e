package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ObserveOperation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveOperation("query", StatusOK, 10*time.Millisecond)
	r.ObserveOperation("query", StatusOK, 20*time.Millisecond)
	r.ObserveOperation("mutation", StatusError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("query", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("mutation", StatusError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.operations.WithLabelValues("mutation", StatusOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(r.operationDuration))
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveOperation("query", StatusOK, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "usergraph_graphql_operations_total")
	assert.Contains(t, string(body), "usergraph_graphql_operation_duration_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}
