package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

const usersCollection = "users"

// ProfileRepository reads user profiles from the users collection.
type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(usersCollection)}
}

type mongoProfile struct {
	ID        bson.RawValue `bson:"_id"`
	Email     string        `bson:"email"`
	FirstName string        `bson:"first_name"`
	LastName  string        `bson:"last_name"`
	Role      string        `bson:"role"`
	Phone     string        `bson:"phone,omitempty"`
	KYCStatus string        `bson:"kyc_status,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// FindByID looks a profile up by its subject id. Ids that parse as an
// ObjectID match either representation.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	var mp mongoProfile
	if err := r.coll.FindOne(ctx, idFilter(id)).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return mp.toDomain(id), nil
}

func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

func (mp mongoProfile) toDomain(fallbackID string) *domain.UserProfile {
	id := fallbackID
	if oid, ok := mp.ID.ObjectIDOK(); ok {
		id = oid.Hex()
	} else if s, ok := mp.ID.StringValueOK(); ok {
		id = s
	}
	return &domain.UserProfile{
		ID:        id,
		Email:     mp.Email,
		FirstName: mp.FirstName,
		LastName:  mp.LastName,
		Role:      domain.Role(strings.ToUpper(mp.Role)),
		Phone:     mp.Phone,
		KYCStatus: mp.KYCStatus,
		CreatedAt: mp.CreatedAt.UTC(),
		UpdatedAt: mp.UpdatedAt.UTC(),
	}
}
