// Package mongo implements the repository interfaces over a MongoDB
// document store. Correctness across concurrent requests relies on
// single-document atomic updates and the indexes declared here, not on
// multi-document transactions.
package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"arcana/config"
	"arcana/internal/errors"
)

// Collection names.
const (
	collClients        = "clients"
	collUsers          = "users"
	collPendingSignups = "pending_signups"
	collSessions       = "user_sessions"
	collVerifications  = "email_verifications"
)

const connectTimeout = 10 * time.Second

// Params holds the dependencies for the database connection.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New connects to MongoDB, verifies the connection, bootstraps indexes and
// registers disconnection on shutdown.
func New(params Params) (*mongo.Database, error) {
	if params.Config.Mongo == nil || params.Config.Mongo.URI == "" {
		return nil, errors.New("mongo uri must be provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(params.Config.Mongo.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongo")
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping mongo")
	}

	db := client.Database(params.Config.Mongo.Database)

	if err := EnsureIndexes(ctx, db); err != nil {
		return nil, errors.Wrap(err, "failed to ensure indexes")
	}

	params.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Disconnecting from MongoDB")

			return errors.WithStack(client.Disconnect(ctx))
		},
	})

	params.Logger.Info("Connected to MongoDB", slog.String("database", params.Config.Mongo.Database))

	return db, nil
}

// EnsureIndexes declares every uniqueness constraint and TTL the auth core
// depends on. Safe to call repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collClients: {
			{
				Keys:    bson.D{{Key: "client_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		collUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// Sparse so users without a handle don't collide on "".
				Keys:    bson.D{{Key: "handle", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		collPendingSignups: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		collSessions: {
			{
				Keys:    bson.D{{Key: "session_token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "refresh_token", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "last_used_at", Value: -1}},
			},
			{
				// TTL: the store removes sessions once expires_at passes.
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
		collVerifications: {
			{
				// At most one outstanding unverified code per email.
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "verified", Value: false}}),
			},
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "failed to create indexes for %s", coll)
		}
	}

	return nil
}
