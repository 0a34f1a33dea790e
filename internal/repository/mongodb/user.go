package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtroode/usergraph/internal/model"
)

const usersCollection = "users"

// collectionAPI is the subset of *mongo.Collection the repository uses,
// kept narrow so tests can run without a live server.
type collectionAPI interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error)
}

type collectionWrapper struct{ *mongo.Collection }

func (w collectionWrapper) CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error) {
	return w.Indexes().CreateMany(ctx, models)
}

// DatabaseProvider hands out the active database handle.
type DatabaseProvider interface {
	Database() (*mongo.Database, error)
}

var (
	_ model.UserStore    = (*UserRepository)(nil)
	_ model.IndexManager = (*UserRepository)(nil)
)

// UserRepository performs all operations on the users collection.
// It holds no state besides the collection handle and is cheap to build per call.
type UserRepository struct {
	coll collectionAPI
	now  func() time.Time
}

// NewUserRepository binds a repository to the provider's current database.
// It fails with model.ErrNotConnected when no handle is available.
func NewUserRepository(provider DatabaseProvider) (*UserRepository, error) {
	db, err := provider.Database()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire users collection: %w", err)
	}

	return newUserRepository(collectionWrapper{Collection: db.Collection(usersCollection)}), nil
}

func newUserRepository(coll collectionAPI) *UserRepository {
	return &UserRepository{
		coll: coll,
		now:  time.Now,
	}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]model.User, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	var records []UserRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		users = append(users, toUser(rec))
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	return r.findByID(ctx, oid)
}

func (r *UserRepository) Create(ctx context.Context, input model.CreateUserInput) (model.User, error) {
	rec := UserRecord{
		Name:      input.Name,
		Email:     input.Email,
		Age:       input.Age,
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	res, err := r.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, fmt.Errorf("%w: %w", model.ErrDuplicateEmail, err)
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.User{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	user, err := r.findByID(ctx, oid)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to re-read created user: %w", err)
	}
	if user == nil {
		return model.User{}, fmt.Errorf("%w: %s", model.ErrInsertNotVisible, oid.Hex())
	}

	return *user, nil
}

func (r *UserRepository) Update(ctx context.Context, input model.UpdateUserInput) (*model.User, error) {
	oid, ok := parseID(input.ID)
	if !ok {
		return nil, nil
	}

	if input.IsEmpty() {
		return r.findByID(ctx, oid)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec UserRecord
	err := r.coll.FindOneAndUpdate(ctx, byID(oid), buildUpdate(input), opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrDuplicateEmail, err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user := toUser(rec)
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, ok := parseID(id)
	if !ok {
		return false, nil
	}

	res, err := r.coll.DeleteOne(ctx, byID(oid))
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	return res.DeletedCount == 1, nil
}

// EnsureIndexes creates the unique email index and the descending createdAt index.
// Creating an index that already exists with the same keys and options is a no-op.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	if _, err := r.coll.CreateIndexes(ctx, models); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) findByID(ctx context.Context, oid primitive.ObjectID) (*model.User, error) {
	var rec UserRecord
	err := r.coll.FindOne(ctx, byID(oid)).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	user := toUser(rec)
	return &user, nil
}

func buildUpdate(input model.UpdateUserInput) bson.D {
	set := bson.D{}
	if input.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *input.Name})
	}
	if input.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *input.Email})
	}
	if input.Age != nil && !input.UnsetAge {
		set = append(set, bson.E{Key: "age", Value: *input.Age})
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if input.UnsetAge {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "age", Value: ""}}})
	}
	return update
}

// parseID reports false for anything that is not a valid ObjectID hex string.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func byID(oid primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: oid}}
}
