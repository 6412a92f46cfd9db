package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

const collectionProfiles = "profiles"

// ProfileRepository is the authoritative profile store. Each owner key maps
// to a single document, enforced by a unique index on owner_key.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles)}
}

type mongoProfile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerKey    string             `bson:"owner_key"`
	Name        string             `bson:"name"`
	Institution string             `bson:"institution"`
	Photo       string             `bson:"photo"`
	Skills      []domain.Skill     `bson:"skills"`
	CreatedAt   time.Time          `bson:"created_at"`
	SubmittedAt time.Time          `bson:"submitted_at"`
}

func (mp *mongoProfile) toDomain() domain.Profile {
	skills := mp.Skills
	if skills == nil {
		skills = []domain.Skill{}
	}
	return domain.Profile{
		ID:          mp.ID.Hex(),
		OwnerKey:    domain.ProfileKey(mp.OwnerKey),
		Name:        mp.Name,
		Institution: mp.Institution,
		Photo:       mp.Photo,
		Skills:      skills,
		CreatedAt:   mp.CreatedAt.UTC(),
		SubmittedAt: mp.SubmittedAt.UTC(),
	}
}

// Upsert replaces every mutable field of the document owned by key in a
// single findAndModify, creating it when absent. created_at and _id are only
// written on insert.
func (r *ProfileRepository) Upsert(ctx context.Context, key domain.ProfileKey, f domain.ProfileFields, at time.Time) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// BSON dates carry millisecond precision.
	at = at.UTC().Truncate(time.Millisecond)
	skills := f.Skills
	if skills == nil {
		skills = []domain.Skill{}
	}

	filter := bson.M{"owner_key": string(key)}
	update := bson.M{
		"$set": bson.M{
			"name":         f.Name,
			"institution":  f.Institution,
			"photo":        f.Photo,
			"skills":       skills,
			"submitted_at": at,
		},
		"$setOnInsert": bson.M{"created_at": at},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	doc, err := upsertOnce(ctx, r.col, filter, update, opts)
	if err != nil {
		return nil, storeErr("upsert profile", err)
	}

	p := doc.toDomain()
	return &p, nil
}

type findOneAndUpdater interface {
	FindOneAndUpdate(ctx context.Context, filter, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// upsertOnce retries a single time on a duplicate key: two upserts for a new
// owner key can race to insert, and the loser then matches the winner's doc.
func upsertOnce(ctx context.Context, col findOneAndUpdater, filter, update interface{}, opts *options.FindOneAndUpdateOptions) (*mongoProfile, error) {
	var doc mongoProfile
	err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		doc = mongoProfile{}
		err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *ProfileRepository) FindByOwnerKey(ctx context.Context, key domain.ProfileKey) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoProfile
	if err := r.col.FindOne(ctx, bson.M{"owner_key": string(key)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, storeErr("find profile", err)
	}

	p := doc.toDomain()
	return &p, nil
}

// ListAll returns all profiles ordered by submitted_at descending.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("list profiles", err)
	}
	defer cur.Close(ctx)

	var docs []mongoProfile
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode profiles", err)
	}

	out := make([]domain.Profile, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the indexes the registry relies on.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "submitted_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
