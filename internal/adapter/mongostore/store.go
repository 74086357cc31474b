// Package mongostore persists weather enrichment documents in MongoDB,
// one document per fire record keyed by FID.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// Store wraps a single MongoDB collection of enrichment documents.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// Connect opens a client, pings the server, and binds the collection.
// An unreachable store is a structural failure; the pipeline does not start
// without it.
func Connect(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		logger: logger,
	}, nil
}

// Upsert writes one enrichment document keyed by FID, replacing any previous
// document for the same fire. Reruns of the linker are therefore safe: each
// FID has at most one document no matter how many times it is enriched.
func (s *Store) Upsert(ctx context.Context, doc domain.WeatherDoc) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"FID": doc.FID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert enrichment FID %d: %w", int(doc.FID), err)
	}
	return nil
}

// Exists reports whether an enrichment document is already persisted for the FID.
func (s *Store) Exists(ctx context.Context, fid int) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"FID": float64(fid)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count enrichment FID %d: %w", fid, err)
	}
	return n > 0, nil
}

// FetchAll bulk-loads every enrichment document, projected to the fields the
// reshaper consumes.
func (s *Store) FetchAll(ctx context.Context) ([]domain.WeatherDoc, error) {
	projection := bson.M{
		"_id":       0,
		"FID":       1,
		"latitude":  1,
		"longitude": 1,
		"elevation": 1,
		"daily":     1,
	}

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find enrichments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []domain.WeatherDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode enrichments: %w", err)
	}

	s.logger.Debug("fetched enrichment documents", "count", len(docs))
	return docs, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
