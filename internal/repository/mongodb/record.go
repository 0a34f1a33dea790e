package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dtroode/usergraph/internal/model"
)

// timestampLayout renders timestamps as ISO-8601 in UTC with millisecond precision,
// which is also the precision BSON dates are stored with.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// UserRecord is the persisted shape of a user document.
type UserRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Age       *int               `bson:"age,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func toUser(rec UserRecord) model.User {
	return model.User{
		ID:        rec.ID.Hex(),
		Name:      rec.Name,
		Email:     rec.Email,
		Age:       rec.Age,
		CreatedAt: rec.CreatedAt.UTC().Format(timestampLayout),
	}
}
