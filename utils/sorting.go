package utils

import (
	"sort"
)

// SortOrder defines the direction of sorting
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ArticleSortable is an interface for types that can be sorted by date
type ArticleSortable interface {
	GetPublicationDateUnix() int64
	GetID() string
}

// Mergeable is an interface for types that can be deduplicated on merge
type Mergeable interface {
	GetDedupeKey() string
}

// SortArticlesByDate sorts articles by publication date. Equal dates keep
// their input order.
func SortArticlesByDate[T ArticleSortable](articles []T, order SortOrder) {
	sort.SliceStable(articles, func(i, j int) bool {
		if order == Descending {
			return articles[i].GetPublicationDateUnix() > articles[j].GetPublicationDateUnix()
		}
		return articles[i].GetPublicationDateUnix() < articles[j].GetPublicationDateUnix()
	})
}

// NewestN filters items with keep, sorts the survivors newest first and
// returns at most n of them. The input slice is not modified.
func NewestN[T ArticleSortable](items []T, n int, keep func(T) bool) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if keep == nil || keep(item) {
			filtered = append(filtered, item)
		}
	}

	SortArticlesByDate(filtered, Descending)

	if n >= 0 && len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}

// MergeByKey merges incoming into existing. An incoming item replaces an
// existing one with the same key in place; new keys are appended in order.
func MergeByKey[T Mergeable](existing, incoming []T) []T {
	index := make(map[string]int, len(existing)+len(incoming))
	merged := make([]T, 0, len(existing)+len(incoming))

	add := func(item T) {
		key := item.GetDedupeKey()
		if pos, ok := index[key]; ok {
			merged[pos] = item
			return
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}

	for _, item := range existing {
		add(item)
	}
	for _, item := range incoming {
		add(item)
	}
	return merged
}
