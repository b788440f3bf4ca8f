package pagination

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rshade/planetzero/internal/engine"
)

// Sorter orders a slice of T by a named field.
type Sorter[T any] struct {
	fields map[string]func(a, b T) int
}

// IsValidField checks if the field is valid for sorting.
func (s *Sorter[T]) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// GetValidFields returns all valid sort fields in sorted order.
func (s *Sorter[T]) GetValidFields() []string {
	fields := make([]string, 0, len(s.fields))
	for field := range s.fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a stably sorted copy of items. The input is not modified.
func (s *Sorter[T]) Sort(items []T, field, order string) ([]T, error) {
	compare, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrInvalidSortField, field, strings.Join(s.GetValidFields(), ", "))
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if order == SortOrderDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return sorted, nil
}

// NewRecordSorter sorts emission records by date, total, or a category total.
func NewRecordSorter() *Sorter[engine.EmissionRecord] {
	return &Sorter[engine.EmissionRecord]{fields: map[string]func(a, b engine.EmissionRecord) int{
		"date":        func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Date, b.Date) },
		"total":       func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Total, b.Total) },
		"transport":   func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Transport, b.Transport) },
		"electricity": func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Electricity, b.Electricity) },
		"food":        func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Food, b.Food) },
		"lifestyle":   func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Lifestyle, b.Lifestyle) },
	}}
}

// NewRecommendationSorter sorts recommendations by savings, category, or title.
func NewRecommendationSorter() *Sorter[engine.Recommendation] {
	return &Sorter[engine.Recommendation]{fields: map[string]func(a, b engine.Recommendation) int{
		"savings": func(a, b engine.Recommendation) int {
			return cmp.Compare(a.PotentialSavingsKg, b.PotentialSavingsKg)
		},
		"category": func(a, b engine.Recommendation) int { return cmp.Compare(a.Category, b.Category) },
		"title":    func(a, b engine.Recommendation) int { return cmp.Compare(a.Title, b.Title) },
	}}
}
