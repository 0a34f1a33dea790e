package graphql

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/dtroode/usergraph/internal/model"
)

var (
	queryImplementors    = []string{"Query"}
	mutationImplementors = []string{"Mutation"}
	userImplementors     = []string{"User"}
)

// NewExecutableSchema binds the user schema to service.
func NewExecutableSchema(service UserService) graphql.ExecutableSchema {
	return &executableSchema{
		schema:   parsedSchema,
		resolver: &Resolver{service: service},
	}
}

type executableSchema struct {
	schema   *ast.Schema
	resolver *Resolver
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

func (e *executableSchema) Complexity(typeName, field string, childComplexity int, args map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	oc := graphql.GetOperationContext(ctx)
	ec := executionContext{OperationContext: oc, resolver: e.resolver}

	var root func(context.Context, ast.SelectionSet) graphql.Marshaler
	switch oc.Operation.Operation {
	case ast.Query:
		root = ec._Query
	case ast.Mutation:
		root = ec._Mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		data := root(ctx, oc.Operation.SelectionSet)

		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

type executionContext struct {
	*graphql.OperationContext
	resolver *Resolver
}

// fieldFunc resolves one field and reports whether a non-null field failed.
type fieldFunc func(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool)

func (ec *executionContext) _Query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, queryImplementors)
	out := graphql.NewFieldSet(fields)

	for i, field := range fields {
		var resolve fieldFunc
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Query")
			continue
		case "__schema", "__type":
			resolve = ec._introspection
		case "users":
			resolve = ec._Query_users
		case "user":
			resolve = ec._Query_user
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
		ec.resolveField(ctx, "Query", out, i, field, resolve)
	}

	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

// _Mutation resolves fields in document order, so mutations run serially.
func (ec *executionContext) _Mutation(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, mutationImplementors)
	out := graphql.NewFieldSet(fields)

	for i, field := range fields {
		var resolve fieldFunc
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Mutation")
			continue
		case "createUser":
			resolve = ec._Mutation_createUser
		case "updateUser":
			resolve = ec._Mutation_updateUser
		case "deleteUser":
			resolve = ec._Mutation_deleteUser
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
		ec.resolveField(ctx, "Mutation", out, i, field, resolve)
	}

	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) resolveField(ctx context.Context, object string, out *graphql.FieldSet, i int, field graphql.CollectedField, resolve fieldFunc) {
	fc := &graphql.FieldContext{
		Object:     object,
		Field:      field,
		IsMethod:   true,
		IsResolver: true,
	}
	ctx = graphql.WithFieldContext(ctx, fc)

	defer func() {
		if r := recover(); r != nil {
			ec.Error(ctx, ec.Recover(ctx, r))
			out.Values[i] = graphql.Null
			if isNonNull(field) {
				out.Invalids++
			}
		}
	}()

	value, ok := resolve(ctx, field)
	out.Values[i] = value
	if !ok {
		out.Invalids++
	}
}

// fail records err on the current field and returns null.
func (ec *executionContext) fail(ctx context.Context, field graphql.CollectedField, err error) (graphql.Marshaler, bool) {
	ec.Error(ctx, err)
	return graphql.Null, !isNonNull(field)
}

func (ec *executionContext) _introspection(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	return ec.fail(ctx, field, gqlerror.Errorf("introspection disabled"))
}

func (ec *executionContext) _Query_users(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	users, err := ec.resolver.Query().Users(ctx)
	if err != nil {
		return ec.fail(ctx, field, err)
	}

	list := make(graphql.Array, len(users))
	for i := range users {
		list[i] = ec._User(ctx, field.Selections, &users[i])
	}
	return list, true
}

func (ec *executionContext) _Query_user(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	args, err := ec.field_Query_user_args(field)
	if err != nil {
		return ec.fail(ctx, field, err)
	}

	user, err := ec.resolver.Query().User(ctx, args.id)
	if err != nil {
		return ec.fail(ctx, field, err)
	}
	return ec._User(ctx, field.Selections, user), true
}

func (ec *executionContext) _Mutation_createUser(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	args, err := ec.field_Mutation_createUser_args(field)
	if err != nil {
		return ec.fail(ctx, field, err)
	}

	user, err := ec.resolver.Mutation().CreateUser(ctx, args.name, args.email, args.age)
	if err != nil {
		return ec.fail(ctx, field, err)
	}
	return ec._User(ctx, field.Selections, &user), true
}

func (ec *executionContext) _Mutation_updateUser(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	args, err := ec.field_Mutation_updateUser_args(field)
	if err != nil {
		return ec.fail(ctx, field, err)
	}

	user, err := ec.resolver.Mutation().UpdateUser(ctx, args.id, args.name, args.email, args.age)
	if err != nil {
		return ec.fail(ctx, field, err)
	}
	return ec._User(ctx, field.Selections, user), true
}

func (ec *executionContext) _Mutation_deleteUser(ctx context.Context, field graphql.CollectedField) (graphql.Marshaler, bool) {
	args, err := ec.field_Query_user_args(field)
	if err != nil {
		return ec.fail(ctx, field, err)
	}

	deleted, err := ec.resolver.Mutation().DeleteUser(ctx, args.id)
	if err != nil {
		return ec.fail(ctx, field, err)
	}
	return graphql.MarshalBoolean(deleted), true
}

func (ec *executionContext) _User(ctx context.Context, sel ast.SelectionSet, obj *model.User) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}

	fields := graphql.CollectFields(ec.OperationContext, sel, userImplementors)
	out := graphql.NewFieldSet(fields)

	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("User")
		case "id":
			out.Values[i] = graphql.MarshalID(obj.ID)
		case "name":
			out.Values[i] = graphql.MarshalString(obj.Name)
		case "email":
			out.Values[i] = graphql.MarshalString(obj.Email)
		case "age":
			if obj.Age == nil {
				out.Values[i] = graphql.Null
			} else {
				out.Values[i] = graphql.MarshalInt(*obj.Age)
			}
		case "createdAt":
			out.Values[i] = graphql.MarshalString(obj.CreatedAt)
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
	}
	return out
}

type userIDArgs struct {
	id string
}

type createUserArgs struct {
	name  string
	email string
	age   *int
}

type updateUserArgs struct {
	id    string
	name  *string
	email *string
	age   graphql.Omittable[*int]
}

func (ec *executionContext) field_Query_user_args(field graphql.CollectedField) (userIDArgs, error) {
	raw := ec.fieldArgs(field)

	var args userIDArgs
	var err error
	args.id, err = unmarshalID(raw, "id")
	return args, err
}

func (ec *executionContext) field_Mutation_createUser_args(field graphql.CollectedField) (createUserArgs, error) {
	raw := ec.fieldArgs(field)

	var args createUserArgs
	var err error
	if args.name, err = unmarshalString(raw, "name"); err != nil {
		return args, err
	}
	if args.email, err = unmarshalString(raw, "email"); err != nil {
		return args, err
	}
	args.age, err = unmarshalOptionalInt(raw["age"], "age")
	return args, err
}

func (ec *executionContext) field_Mutation_updateUser_args(field graphql.CollectedField) (updateUserArgs, error) {
	raw := ec.fieldArgs(field)

	var args updateUserArgs
	var err error
	if args.id, err = unmarshalID(raw, "id"); err != nil {
		return args, err
	}
	if args.name, err = unmarshalOptionalString(raw, "name"); err != nil {
		return args, err
	}
	if args.email, err = unmarshalOptionalString(raw, "email"); err != nil {
		return args, err
	}
	if v, ok := raw["age"]; ok {
		age, err := unmarshalOptionalInt(v, "age")
		if err != nil {
			return args, err
		}
		args.age = graphql.OmittableOf(age)
	}
	return args, nil
}

// fieldArgs coerces the field's arguments against the operation variables.
// Omitted arguments are absent from the map, explicit nulls map to nil.
func (ec *executionContext) fieldArgs(field graphql.CollectedField) map[string]interface{} {
	return field.ArgumentMap(ec.Variables)
}

func unmarshalID(raw map[string]interface{}, name string) (string, error) {
	id, err := graphql.UnmarshalID(raw[name])
	if err != nil {
		return "", argumentError(name, err)
	}
	return id, nil
}

func unmarshalString(raw map[string]interface{}, name string) (string, error) {
	s, err := graphql.UnmarshalString(raw[name])
	if err != nil {
		return "", argumentError(name, err)
	}
	return s, nil
}

func unmarshalOptionalString(raw map[string]interface{}, name string) (*string, error) {
	v := raw[name]
	if v == nil {
		return nil, nil
	}
	s, err := graphql.UnmarshalString(v)
	if err != nil {
		return nil, argumentError(name, err)
	}
	return &s, nil
}

// unmarshalOptionalInt rejects values outside the 32-bit range of GraphQL Int.
func unmarshalOptionalInt(v interface{}, name string) (*int, error) {
	if v == nil {
		return nil, nil
	}
	i, err := graphql.UnmarshalInt64(v)
	if err != nil {
		return nil, argumentError(name, err)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, argumentError(name, fmt.Errorf("Int cannot represent non 32-bit signed integer value %d", i))
	}
	n := int(i)
	return &n, nil
}

func argumentError(name string, err error) error {
	return gqlerror.Errorf("invalid value for argument %q: %s", name, err.Error())
}

func isNonNull(field graphql.CollectedField) bool {
	return field.Definition != nil && field.Definition.Type.NonNull
}
