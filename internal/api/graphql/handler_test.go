package graphql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/usergraph/internal/mocks"
	"github.com/dtroode/usergraph/internal/model"
	"github.com/dtroode/usergraph/internal/testutil"
)

type gqlError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type observed struct {
	opType string
	status string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []observed
}

func (o *fakeObserver) ObserveOperation(opType, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{opType: opType, status: status})
}

func newTestHandler(t *testing.T) (http.Handler, *mocks.UserService, *fakeObserver) {
	service := mocks.NewUserService(t)
	observer := &fakeObserver{}
	return NewHandler(service, testutil.MakeNoopLogger(), observer), service, observer
}

func post(t *testing.T, h http.Handler, query string, vars map[string]interface{}) (int, gqlResponse) {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": vars,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestHandler_Users(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("List", mock.Anything).Return([]model.User{
		{ID: "1", Name: "A", Email: "a@example.com", CreatedAt: "2024-01-02T03:04:05.000Z"},
		{ID: "2", Name: "B", Email: "b@example.com", Age: intPtr(30), CreatedAt: "2024-01-02T03:04:06.000Z"},
	}, nil)

	code, resp := post(t, h, `{ all: users { __typename id name age } }`, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Errors)
	assert.Equal(t,
		`{"all":[{"__typename":"User","id":"1","name":"A","age":null},{"__typename":"User","id":"2","name":"B","age":30}]}`,
		string(resp.Data))
}

func TestHandler_UsersEmpty(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("List", mock.Anything).Return([]model.User{}, nil)

	_, resp := post(t, h, `{ users { id } }`, nil)

	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"users":[]}`, string(resp.Data))
}

func TestHandler_User(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Get", mock.Anything, "1").Return(&model.User{
		ID: "1", Name: "Alice", Email: "alice@example.com", Age: intPtr(25), CreatedAt: "2024-01-02T03:04:05.000Z",
	}, nil)
	service.On("Get", mock.Anything, "not-an-id").Return(nil, nil)

	_, resp := post(t, h, `query($id: ID!) { user(id: $id) { id name email age createdAt } }`, map[string]interface{}{"id": "1"})
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t,
		`{"user":{"id":"1","name":"Alice","email":"alice@example.com","age":25,"createdAt":"2024-01-02T03:04:05.000Z"}}`,
		string(resp.Data))

	_, resp = post(t, h, `{ user(id: "not-an-id") { id } }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"user":null}`, string(resp.Data))
}

func TestHandler_CreateUser(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Create", mock.Anything, model.CreateUserInput{Name: "Alice", Email: "alice@example.com", Age: intPtr(25)}).
		Return(model.User{ID: "1", Name: "Alice", Email: "alice@example.com", Age: intPtr(25), CreatedAt: "2024-01-02T03:04:05.000Z"}, nil)
	service.On("Create", mock.Anything, model.CreateUserInput{Name: "Bob", Email: "bob@example.com"}).
		Return(model.User{ID: "2", Name: "Bob", Email: "bob@example.com", CreatedAt: "2024-01-02T03:04:05.000Z"}, nil)

	code, resp := post(t, h,
		`mutation($name: String!, $email: String!, $age: Int) { createUser(name: $name, email: $email, age: $age) { id age } }`,
		map[string]interface{}{"name": "Alice", "email": "alice@example.com", "age": 25})
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"createUser":{"id":"1","age":25}}`, string(resp.Data))

	_, resp = post(t, h, `mutation { createUser(name: "Bob", email: "bob@example.com") { id age } }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"createUser":{"id":"2","age":null}}`, string(resp.Data))
}

func TestHandler_CreateUser_DuplicateEmail(t *testing.T) {
	h, service, observer := newTestHandler(t)

	service.On("Create", mock.Anything, mock.Anything).
		Return(model.User{}, fmt.Errorf("failed to create user: %w", model.ErrDuplicateEmail))

	code, resp := post(t, h, `mutation { createUser(name: "A", email: "dup@example.com") { id } }`, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "email is already taken", resp.Errors[0].Message)
	assert.Equal(t, []interface{}{"createUser"}, resp.Errors[0].Path)
	assert.Equal(t, CodeEmailTaken, resp.Errors[0].Extensions["code"])

	assert.Equal(t, []observed{{opType: "mutation", status: "error"}}, observer.calls)
}

func TestHandler_UpdateUser_Arguments(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]interface{}
		want  model.UpdateUserInput
	}{
		{
			name:  "only age",
			query: `mutation { updateUser(id: "1", age: 41) { id } }`,
			want:  model.UpdateUserInput{ID: "1", Age: intPtr(41)},
		},
		{
			name:  "literal null age",
			query: `mutation { updateUser(id: "1", age: null) { id } }`,
			want:  model.UpdateUserInput{ID: "1", UnsetAge: true},
		},
		{
			name:  "only name",
			query: `mutation { updateUser(id: "1", name: "Alicia") { id } }`,
			want:  model.UpdateUserInput{ID: "1", Name: strPtr("Alicia")},
		},
		{
			name:  "omitted variable",
			query: `mutation($age: Int) { updateUser(id: "1", age: $age) { id } }`,
			want:  model.UpdateUserInput{ID: "1"},
		},
		{
			name:  "null variable",
			query: `mutation($age: Int) { updateUser(id: "1", age: $age) { id } }`,
			vars:  map[string]interface{}{"age": nil},
			want:  model.UpdateUserInput{ID: "1", UnsetAge: true},
		},
		{
			name:  "email variable",
			query: `mutation($email: String) { updateUser(id: "1", email: $email) { id } }`,
			vars:  map[string]interface{}{"email": "new@example.com"},
			want:  model.UpdateUserInput{ID: "1", Email: strPtr("new@example.com")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, service, _ := newTestHandler(t)
			service.On("Update", mock.Anything, tt.want).Return(&model.User{ID: "1"}, nil)

			_, resp := post(t, h, tt.query, tt.vars)

			assert.Empty(t, resp.Errors)
			assert.JSONEq(t, `{"updateUser":{"id":"1"}}`, string(resp.Data))
		})
	}
}

func TestHandler_AgeOutOfInt32Range(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		vars   map[string]interface{}
		method string
	}{
		{
			name:   "create literal",
			query:  `mutation { createUser(name: "A", email: "a@example.com", age: 99999999999) { id } }`,
			method: "Create",
		},
		{
			name:   "create variable",
			query:  `mutation($age: Int) { createUser(name: "A", email: "a@example.com", age: $age) { id } }`,
			vars:   map[string]interface{}{"age": 99999999999},
			method: "Create",
		},
		{
			name:   "update below minimum",
			query:  `mutation { updateUser(id: "1", age: -2147483649) { id } }`,
			method: "Update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, service, _ := newTestHandler(t)

			_, resp := post(t, h, tt.query, tt.vars)

			require.NotEmpty(t, resp.Errors)
			assert.Contains(t, resp.Errors[0].Message, `"age"`)
			assert.NotEqual(t, "internal server error", resp.Errors[0].Message)
			service.AssertNotCalled(t, tt.method, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_AgeInt32Bounds(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Create", mock.Anything, model.CreateUserInput{Name: "A", Email: "a@example.com", Age: intPtr(2147483647)}).
		Return(model.User{ID: "1", Age: intPtr(2147483647)}, nil)

	_, resp := post(t, h, `mutation { createUser(name: "A", email: "a@example.com", age: 2147483647) { age } }`, nil)

	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"createUser":{"age":2147483647}}`, string(resp.Data))
}

func TestHandler_UpdateUser_Absent(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Update", mock.Anything, mock.Anything).Return(nil, nil)

	_, resp := post(t, h, `mutation { updateUser(id: "missing", name: "x") { id } }`, nil)

	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"updateUser":null}`, string(resp.Data))
}

func TestHandler_UpdateUser_InternalError(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Update", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, resp := post(t, h, `mutation { updateUser(id: "1", name: "x") { id } }`, nil)

	assert.JSONEq(t, `{"updateUser":null}`, string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
	assert.Equal(t, []interface{}{"updateUser"}, resp.Errors[0].Path)
	assert.Equal(t, CodeInternal, resp.Errors[0].Extensions["code"])
}

func TestHandler_DeleteUser(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("Delete", mock.Anything, "1").Return(true, nil).Once()
	service.On("Delete", mock.Anything, "1").Return(false, nil).Once()

	_, resp := post(t, h, `mutation { deleteUser(id: "1") }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"deleteUser":true}`, string(resp.Data))

	_, resp = post(t, h, `mutation { again: deleteUser(id: "1") }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"again":false}`, string(resp.Data))
}

func TestHandler_MutationsRunInOrder(t *testing.T) {
	h, service, _ := newTestHandler(t)

	var order []string
	service.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "create") }).
		Return(model.User{ID: "1"}, nil)
	service.On("Delete", mock.Anything, "1").
		Run(func(mock.Arguments) { order = append(order, "delete") }).
		Return(true, nil)

	_, resp := post(t, h, `mutation {
		c: createUser(name: "A", email: "a@example.com") { id }
		d: deleteUser(id: "1")
	}`, nil)

	assert.Empty(t, resp.Errors)
	assert.Equal(t, `{"c":{"id":"1"},"d":true}`, string(resp.Data))
	assert.Equal(t, []string{"create", "delete"}, order)
}

func TestHandler_Typename(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := post(t, h, `{ __typename }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__typename":"Query"}`, string(resp.Data))

	_, resp = post(t, h, `mutation { __typename }`, nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__typename":"Mutation"}`, string(resp.Data))
}

func TestHandler_IntrospectionDisabled(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := post(t, h, `{ __schema { queryType { name } } }`, nil)
	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "introspection disabled", resp.Errors[0].Message)

	_, resp = post(t, h, `{ __type(name: "User") { name } }`, nil)
	assert.JSONEq(t, `{"__type":null}`, string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "introspection disabled", resp.Errors[0].Message)
}

func TestHandler_ValidationError(t *testing.T) {
	h, _, _ := newTestHandler(t)

	code, resp := post(t, h, `{ accounts { id } }`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "accounts")
}

func TestHandler_Panic(t *testing.T) {
	h, service, _ := newTestHandler(t)

	service.On("List", mock.Anything).
		Run(func(mock.Arguments) { panic("boom") }).
		Return(nil, nil)

	code, resp := post(t, h, `{ users { id } }`, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
	assert.Equal(t, CodeInternal, resp.Errors[0].Extensions["code"])
}

func TestHandler_Get(t *testing.T) {
	h, service, observer := newTestHandler(t)

	service.On("List", mock.Anything).Return([]model.User{{ID: "1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ users { id } }`), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"users":[{"id":"1"}]}}`, rec.Body.String())
	assert.Equal(t, []observed{{opType: "query", status: "ok"}}, observer.calls)
}
