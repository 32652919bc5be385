package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"arcana/internal/domain/entity"
	"arcana/internal/domain/repository"
	"arcana/internal/errors"
	"arcana/internal/infra/persistence/model"
)

type verificationRepository struct {
	coll *mongo.Collection
}

// NewVerificationRepository is the constructor for the Mongo-backed verification repository.
func NewVerificationRepository(db *mongo.Database) repository.VerificationRepository {
	return &verificationRepository{coll: db.Collection(collVerifications)}
}

func (r *verificationRepository) Create(ctx context.Context, verification *entity.EmailVerification) error {
	if verification.ID == uuid.Nil {
		verification.ID = uuid.New()
	}
	if verification.CreatedAt.IsZero() {
		verification.CreatedAt = time.Now()
	}

	if _, err := r.coll.InsertOne(ctx, model.FromVerificationEntity(verification)); err != nil {
		return errors.Wrap(err, "failed to insert verification")
	}

	return nil
}

func (r *verificationRepository) FindLatestByEmail(ctx context.Context, email string) (*entity.EmailVerification, error) {
	var doc model.VerificationModel
	err := r.coll.FindOne(ctx,
		bson.D{{Key: "email", Value: email}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrVerificationNotFound)
		}

		return nil, errors.Wrap(err, "failed to find verification")
	}

	return doc.ToEntity(), nil
}

func (r *verificationRepository) FindUnverifiedByEmail(ctx context.Context, email string) (*entity.EmailVerification, error) {
	filter := bson.D{
		{Key: "email", Value: email},
		{Key: "verified", Value: false},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: time.Now()}}},
	}

	var doc model.VerificationModel
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrVerificationNotFound)
		}

		return nil, errors.Wrap(err, "failed to find verification")
	}

	return doc.ToEntity(), nil
}

func (r *verificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var doc model.VerificationModel
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, errors.WithStack(repository.ErrVerificationNotFound)
		}

		return 0, errors.Wrap(err, "failed to increment attempts")
	}

	return doc.Attempts, nil
}

func (r *verificationRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "email", Value: email}})

	return errors.Wrap(err, "failed to delete verifications")
}

func (r *verificationRepository) DeleteExpired(ctx context.Context) (int, error) {
	res, err := r.coll.DeleteMany(ctx,
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: time.Now()}}}})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired verifications")
	}

	return int(res.DeletedCount), nil
}
