package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/astromechza/roomlist/pkg/list"
)

// Mongo persists each room as one document in a "rooms" collection, keyed by room id.
type Mongo struct {
	client *mongo.Client
	rooms  *mongo.Collection
}

func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &Mongo{
		client: client,
		rooms:  client.Database("roomlist").Collection("rooms"),
	}, nil
}

func (m *Mongo) LoadRoom(ctx context.Context, id string) (*list.Room, error) {
	room := new(list.Room)
	if err := m.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("load %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query room %q: %w", id, err)
	}
	return room, nil
}

func (m *Mongo) SaveRoom(ctx context.Context, room *list.Room) error {
	if _, err := m.rooms.ReplaceOne(
		ctx, bson.M{"_id": room.ID}, room, options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("failed to persist room %q: %w", room.ID, err)
	}
	return nil
}

func (m *Mongo) CreateRoom(ctx context.Context, id string) (*list.Room, error) {
	room := &list.Room{ID: id, Items: []list.Item{}, Users: []list.User{}}
	if _, err := m.rooms.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create %q: %w", id, ErrExists)
		}
		return nil, fmt.Errorf("failed to insert room %q: %w", id, err)
	}
	return room, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
