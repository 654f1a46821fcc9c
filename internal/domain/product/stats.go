package product

import (
	"sort"
)

// FilterStats describes the values currently available to the filters.
type FilterStats struct {
	Categories []Category `json:"categories"`
	Sizes      []Size     `json:"sizes"`
	SexTypes   []string   `json:"sex_types"`
	ColorTypes []string   `json:"color_types"`
	SiteTypes  []string   `json:"site_types"`
	MinPrice   float64    `json:"min_price"`
	MaxPrice   float64    `json:"max_price"`
}

// EmptyStats is the answer for a filter that matches nothing.
func EmptyStats() FilterStats {
	return FilterStats{
		Categories: []Category{},
		Sizes:      []Size{},
		SexTypes:   []string{},
		ColorTypes: []string{},
		SiteTypes:  []string{},
	}
}

// Canonicalize drops sizes without a type and sorts every list so responses are stable.
func (s *FilterStats) Canonicalize() {
	sizes := s.Sizes[:0]
	for _, sz := range s.Sizes {
		if sz.SizeType == "" {
			continue
		}
		sort.Float64s(sz.Values)
		sizes = append(sizes, sz)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].SizeType < sizes[j].SizeType })
	s.Sizes = sizes

	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].ID != s.Categories[j].ID {
			return s.Categories[i].ID < s.Categories[j].ID
		}
		return s.Categories[i].Name < s.Categories[j].Name
	})
	sort.Strings(s.SexTypes)
	sort.Strings(s.ColorTypes)
	sort.Strings(s.SiteTypes)
}
