package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

type statsRow struct {
	Totals     []statsTotals   `bson:"totals"`
	Categories []statsCategory `bson:"categories"`
	Sizes      []statsSize     `bson:"sizes"`
}

type statsTotals struct {
	Min    float64  `bson:"min"`
	Max    float64  `bson:"max"`
	Sexes  []string `bson:"sexes"`
	Colors []string `bson:"colors"`
	Sites  []string `bson:"sites"`
}

type statsCategory struct {
	Category product.Category `bson:"_id"`
}

type statsSize struct {
	SizeType *string   `bson:"_id"`
	Values   []float64 `bson:"values"`
}

// FilterStats aggregates price bounds and distinct attribute values of the matching records.
// No match yields product.EmptyStats.
func (s *Store) FilterStats(ctx context.Context, f filter.Query) (product.FilterStats, error) {
	var rows []statsRow
	if err := s.aggregate(ctx, statsPipeline(f), &rows); err != nil {
		return product.FilterStats{}, &db.Error{Op: db.OpStats, Err: err}
	}
	if len(rows) == 0 || len(rows[0].Totals) == 0 {
		return product.EmptyStats(), nil
	}
	return rows[0].toStats(), nil
}

func (r statsRow) toStats() product.FilterStats {
	stats := product.EmptyStats()
	t := r.Totals[0]
	stats.MinPrice = t.Min
	stats.MaxPrice = t.Max
	stats.SexTypes = append(stats.SexTypes, t.Sexes...)
	stats.ColorTypes = append(stats.ColorTypes, t.Colors...)
	stats.SiteTypes = append(stats.SiteTypes, t.Sites...)
	for _, c := range r.Categories {
		stats.Categories = append(stats.Categories, c.Category)
	}
	for _, sz := range r.Sizes {
		if sz.SizeType == nil {
			continue
		}
		stats.Sizes = append(stats.Sizes, product.Size{SizeType: *sz.SizeType, Values: sz.Values})
	}
	stats.Canonicalize()
	return stats
}

func statsPipeline(f filter.Query) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filterDoc(f)}},
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "min", Value: bson.D{{Key: "$min", Value: "$price"}}},
					{Key: "max", Value: bson.D{{Key: "$max", Value: "$price"}}},
					{Key: "sexes", Value: bson.D{{Key: "$addToSet", Value: "$specification.sex"}}},
					{Key: "colors", Value: bson.D{{Key: "$addToSet", Value: "$specification.color"}}},
					{Key: "sites", Value: bson.D{{Key: "$addToSet", Value: "$site"}}},
				}}},
			}},
			{Key: "categories", Value: bson.A{
				bson.D{{Key: "$unwind", Value: "$category"}},
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: bson.D{
						{Key: "id", Value: "$category.id"},
						{Key: "name", Value: "$category.name"},
					}},
				}}},
			}},
			{Key: "sizes", Value: bson.A{
				bson.D{{Key: "$unwind", Value: "$specification.size"}},
				bson.D{{Key: "$unwind", Value: "$specification.size.values"}},
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$specification.size.size_type"},
					{Key: "values", Value: bson.D{{Key: "$addToSet", Value: "$specification.size.values"}}},
				}}},
			}},
		}}},
	}
}
