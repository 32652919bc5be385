package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"arcana/internal/domain/entity"
	"arcana/internal/domain/repository"
	"arcana/internal/errors"
	"arcana/internal/infra/persistence/model"
)

type clientRepository struct {
	coll *mongo.Collection
}

// NewClientRepository is the constructor for the Mongo-backed client repository.
func NewClientRepository(db *mongo.Database) repository.ClientRepository {
	return &clientRepository{coll: db.Collection(collClients)}
}

func (r *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	now := time.Now()
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.CreatedAt = now
	client.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, model.FromClientEntity(client)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(repository.ErrClientExists, client.ClientID)
		}

		return errors.Wrap(err, "failed to insert client")
	}

	return nil
}

func (r *clientRepository) FindByClientID(ctx context.Context, clientID string) (*entity.Client, error) {
	var doc model.ClientModel
	err := r.coll.FindOne(ctx, bson.D{{Key: "client_id", Value: clientID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrClientNotFound)
		}

		return nil, errors.Wrap(err, "failed to find client")
	}

	return doc.ToEntity(), nil
}

func (r *clientRepository) List(ctx context.Context) ([]*entity.Client, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}
	defer cursor.Close(ctx)

	var clients []*entity.Client
	for cursor.Next(ctx) {
		var doc model.ClientModel
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode client")
		}
		clients = append(clients, doc.ToEntity())
	}

	return clients, errors.Wrap(cursor.Err(), "client cursor failed")
}

func (r *clientRepository) UpdateSecretHash(ctx context.Context, clientID, secretHash string) error {
	return r.updateOne(ctx, clientID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "secret_hash", Value: secretHash},
			{Key: "updated_at", Value: time.Now()},
		}},
	})
}

func (r *clientRepository) SetActive(ctx context.Context, clientID string, active bool) error {
	return r.updateOne(ctx, clientID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: active},
			{Key: "updated_at", Value: time.Now()},
		}},
	})
}

func (r *clientRepository) TouchLastUsed(ctx context.Context, clientID string, at time.Time) error {
	return r.updateOne(ctx, clientID, bson.D{
		{Key: "$set", Value: bson.D{{Key: "last_used_at", Value: at}}},
	})
}

func (r *clientRepository) Delete(ctx context.Context, clientID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "client_id", Value: clientID}})
	if err != nil {
		return errors.Wrap(err, "failed to delete client")
	}
	if res.DeletedCount == 0 {
		return errors.WithStack(repository.ErrClientNotFound)
	}

	return nil
}

func (r *clientRepository) updateOne(ctx context.Context, clientID string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "client_id", Value: clientID}}, update)
	if err != nil {
		return errors.Wrap(err, "failed to update client")
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(repository.ErrClientNotFound)
	}

	return nil
}
