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

type sessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository is the constructor for the Mongo-backed session repository.
func NewSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &sessionRepository{coll: db.Collection(collSessions)}
}

// activeFilter matches active, non-expired sessions.
func activeFilter(now time.Time) bson.D {
	return bson.D{
		{Key: "is_active", Value: true},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.UserSession) error {
	now := time.Now()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, model.FromSessionEntity(session)); err != nil {
		return errors.Wrap(err, "failed to insert session")
	}

	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.UserSession, error) {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "user_id", Value: userID.String()},
	}

	var doc model.SessionModel
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrSessionNotFound)
		}

		return nil, errors.Wrap(err, "failed to find session")
	}

	return doc.ToEntity(), nil
}

func (r *sessionRepository) FindActiveByRefreshToken(ctx context.Context, refreshToken string) (*entity.UserSession, error) {
	filter := append(bson.D{
		{Key: "refresh_token", Value: refreshToken},
		{Key: "keep_me_logged_in", Value: true},
	}, activeFilter(time.Now())...)

	var doc model.SessionModel
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrSessionNotFound)
		}

		return nil, errors.Wrap(err, "failed to find session by refresh token")
	}

	return doc.ToEntity(), nil
}

func (r *sessionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.UserSession, error) {
	filter := append(bson.D{{Key: "user_id", Value: userID.String()}}, activeFilter(time.Now())...)

	cursor, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "last_used_at", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active sessions")
	}
	defer cursor.Close(ctx)

	var sessions []*entity.UserSession
	for cursor.Next(ctx) {
		var doc model.SessionModel
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode session")
		}
		sessions = append(sessions, doc.ToEntity())
	}

	return sessions, errors.Wrap(cursor.Err(), "session cursor failed")
}

func (r *sessionRepository) CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	filter := append(bson.D{{Key: "user_id", Value: userID.String()}}, activeFilter(time.Now())...)

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return int(count), nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, id, userID uuid.UUID) error {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "user_id", Value: userID.String()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, deactivateUpdate())
	if err != nil {
		return errors.Wrap(err, "failed to deactivate session")
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(repository.ErrSessionNotFound)
	}

	return nil
}

func (r *sessionRepository) DeactivateAllByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "is_active", Value: true},
	}

	res, err := r.coll.UpdateMany(ctx, filter, deactivateUpdate())
	if err != nil {
		return 0, errors.Wrap(err, "failed to deactivate sessions")
	}

	return int(res.ModifiedCount), nil
}

func (r *sessionRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "last_used_at", Value: at},
			{Key: "updated_at", Value: at},
		}}},
	)

	return errors.Wrap(err, "failed to touch session")
}

func (r *sessionRepository) ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt, lastUsedAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "expires_at", Value: expiresAt},
			{Key: "last_used_at", Value: lastUsedAt},
			{Key: "updated_at", Value: lastUsedAt},
		}}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to extend session expiry")
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(repository.ErrSessionNotFound)
	}

	return nil
}

func (r *sessionRepository) DeleteExpiredByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.deleteExpired(ctx, bson.D{{Key: "user_id", Value: userID.String()}})
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	return r.deleteExpired(ctx, bson.D{})
}

func (r *sessionRepository) deleteExpired(ctx context.Context, scope bson.D) (int, error) {
	filter := append(scope, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: time.Now()}}}},
		bson.D{{Key: "is_active", Value: false}},
	}})

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}

	return int(res.DeletedCount), nil
}

func deactivateUpdate() bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	}}}
}
