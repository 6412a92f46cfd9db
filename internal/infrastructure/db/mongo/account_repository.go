package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository stores durable submitter identities.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type mongoAccount struct {
	ID           string `bson:"_id"`
	Handle       string `bson:"handle,omitempty"`
	Role         string `bson:"role"`
	DisplayName  string `bson:"display_name"`
	CreatedAt    int64  `bson:"created_at"`
	LastSignInAt int64  `bson:"last_sign_in_at"`
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		ID:           a.ID,
		Handle:       a.Handle,
		Role:         string(a.Role),
		DisplayName:  a.DisplayName,
		CreatedAt:    a.CreatedAt.Unix(),
		LastSignInAt: a.LastSignInAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAccountExists
		}
		return storeErr("insert account", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"handle": handle})
}

// Touch records a sign-in and the display name it used.
func (r *AccountRepository) Touch(ctx context.Context, id, displayName string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"display_name": displayName, "last_sign_in_at": at.Unix()},
	})
	if err != nil {
		return storeErr("touch account", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := r.col.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeErr("find account", err)
	}

	return &domain.Account{
		ID:           ma.ID,
		Handle:       ma.Handle,
		Role:         domain.Role(ma.Role),
		DisplayName:  ma.DisplayName,
		CreatedAt:    unixToTime(ma.CreatedAt),
		LastSignInAt: unixToTime(ma.LastSignInAt),
	}, nil
}

// EnsureIndexes makes handles unique among accounts that have one.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "handle", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"handle": bson.M{"$exists": true}}),
	})
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
