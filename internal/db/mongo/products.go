package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// Find runs a filtered, sorted and windowed read.
func (s *Store) Find(ctx context.Context, q db.FindQuery) ([]product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(sortDoc(q.Sort))
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.coll.Find(ctx, filterDoc(q.Filter), opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	products := make([]product.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	return products, nil
}

// Count returns the number of records matching f, ignoring any window.
func (s *Store) Count(ctx context.Context, f filter.Query) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// FindByID returns one record or db.ErrKeyNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p product.Product
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return product.Product{}, db.ErrKeyNotFound
	}
	if err != nil {
		return product.Product{}, &db.Error{Op: db.OpFindOne, Err: err}
	}
	return p, nil
}

// InsertMany appends records without stopping at the first duplicate.
func (s *Store) InsertMany(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	docs := make([]any, len(products))
	for i := range products {
		docs[i] = products[i]
	}
	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

func filterDoc(f filter.Query) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func sortDoc(fields []db.SortField) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: f.Field, Value: f.Direction})
	}
	return d
}
