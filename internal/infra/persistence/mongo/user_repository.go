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

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository is the constructor for the Mongo-backed user repository.
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{coll: db.Collection(collUsers)}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc model.UserModel
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrUserNotFound)
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return doc.ToEntity(), nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, model.FromUserEntity(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(repository.ErrUserExists, user.Email)
		}

		return errors.Wrap(err, "failed to insert user")
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID.String()}}, model.FromUserEntity(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(repository.ErrUserExists, user.Email)
		}

		return errors.Wrap(err, "failed to update user")
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(repository.ErrUserNotFound)
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if res.DeletedCount == 0 {
		return errors.WithStack(repository.ErrUserNotFound)
	}

	return nil
}

type pendingSignupRepository struct {
	coll *mongo.Collection
}

// NewPendingSignupRepository is the constructor for the pending signup repository.
func NewPendingSignupRepository(db *mongo.Database) repository.PendingSignupRepository {
	return &pendingSignupRepository{coll: db.Collection(collPendingSignups)}
}

func (r *pendingSignupRepository) Upsert(ctx context.Context, pending *entity.PendingSignup) error {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now()
	}

	doc := model.FromPendingSignupEntity(pending)

	_, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "email", Value: pending.Email}},
		doc,
		options.Replace().SetUpsert(true),
	)

	return errors.Wrap(err, "failed to upsert pending signup")
}

func (r *pendingSignupRepository) FindByEmail(ctx context.Context, email string) (*entity.PendingSignup, error) {
	var doc model.PendingSignupModel
	if err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrPendingSignupNotFound)
		}

		return nil, errors.Wrap(err, "failed to find pending signup")
	}

	return doc.ToEntity(), nil
}

func (r *pendingSignupRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "email", Value: email}})

	return errors.Wrap(err, "failed to delete pending signup")
}
