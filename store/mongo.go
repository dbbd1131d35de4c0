// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
)

const (
	databaseName   = "c2ng"
	collectionName = "c2session"
)

// sessionDocument wraps a Session with the Mongo primary key
type sessionDocument struct {
	ID      string `bson:"_id"`
	Session `bson:",inline"`
}

// MongoStore implements SessionStore over a MongoDB collection
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a session store
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	logger.Info("Connecting to MongoDB", logger.String("uri", uri))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	return &MongoStore{
		client:   client,
		sessions: client.Database(databaseName).Collection(collectionName),
	}, nil
}

// GetSession fetches a session document by UasID
func (m *MongoStore) GetSession(ctx context.Context, uasid string) (*Session, error) {
	var doc sessionDocument

	err := m.sessions.FindOne(ctx, bson.M{"_id": uasid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("mongo find session %s: %w", uasid, err)
	}

	return &doc.Session, nil
}

// PutSession upserts a session document keyed by UasID
func (m *MongoStore) PutSession(ctx context.Context, session *Session) error {
	doc := sessionDocument{ID: session.UasID, Session: *session}

	_, err := m.sessions.ReplaceOne(
		ctx,
		bson.M{"_id": session.UasID},
		doc,
		options.Replace().SetUpsert(true),
	)

	if err != nil {
		return fmt.Errorf("mongo put session %s: %w", session.UasID, err)
	}

	return nil
}

// ListSessions scans the full session collection
func (m *MongoStore) ListSessions(ctx context.Context) ([]*Session, error) {
	cursor, err := m.sessions.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*Session

	for cursor.Next(ctx) {
		var doc sessionDocument

		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode session: %w", err)
		}

		session := doc.Session
		sessions = append(sessions, &session)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo session cursor: %w", err)
	}

	return sessions, nil
}

// Ping verifies the MongoDB deployment is reachable
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
