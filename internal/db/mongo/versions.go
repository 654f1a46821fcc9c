package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/byshoes/byshoes/internal/db"
)

var naturalKeyExpr = bson.D{{Key: "$concat", Value: bson.A{"$site", "$article"}}}

// MaxVersion returns the highest version, 0 for an empty store.
func (s *Store) MaxVersion(ctx context.Context) (int, error) {
	var rows []struct {
		Max *int `bson:"max"`
	}
	if err := s.aggregate(ctx, maxVersionPipeline(), &rows); err != nil {
		return 0, &db.Error{Op: db.OpMaxVersion, Err: err}
	}
	if len(rows) == 0 || rows[0].Max == nil {
		return 0, nil
	}
	return *rows[0].Max, nil
}

// NaturalKeys returns the distinct site+article keys present at version.
func (s *Store) NaturalKeys(ctx context.Context, version int) ([]string, error) {
	var rows []struct {
		Key string `bson:"_id"`
	}
	if err := s.aggregate(ctx, naturalKeysPipeline(version), &rows); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys, nil
}

// IDsByNaturalKey resolves keys at version to record ids. Duplicates within a
// version resolve to the most recently parsed record.
func (s *Store) IDsByNaturalKey(ctx context.Context, version int, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return []string{}, nil
	}
	var rows []struct {
		ID string `bson:"id"`
	}
	if err := s.aggregate(ctx, idsByNaturalKeyPipeline(version, keys), &rows); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

func (s *Store) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func maxVersionPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "max", Value: bson.D{{Key: "$max", Value: "$version"}}},
		}}},
	}
}

func naturalKeysPipeline(version int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "version", Value: version},
			{Key: "article", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
		}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: naturalKeyExpr}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func idsByNaturalKeyPipeline(version int, keys []string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "version", Value: version}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "natural_key", Value: naturalKeyExpr}}}},
		{{Key: "$match", Value: bson.D{{Key: "natural_key", Value: bson.D{{Key: "$in", Value: keys}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "parsed", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$natural_key"},
			{Key: "id", Value: bson.D{{Key: "$last", Value: "$_id"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// CompleteVersion records that the crawl run of version finished.
func (s *Store) CompleteVersion(ctx context.Context, version int) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.runs.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: version}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "completed_at", Value: time.Now().UTC()}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return &db.Error{Op: db.OpComplete, Err: err}
	}
	return nil
}

// CompletedVersion returns the highest finished version, 0 when none.
func (s *Store) CompletedVersion(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var run struct {
		Version int `bson:"_id"`
	}
	err := s.runs.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpComplete, Err: err}
	}
	return run.Version, nil
}
