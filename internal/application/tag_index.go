package application

import (
	"sort"

	"booking-session-cache/internal/domain"
)

// TagIndex is the bipartite table between tags and the query keys carrying them.
// It is not safe for concurrent use; RequestCache guards it with its own lock.
type TagIndex struct {
	// tag type -> tag id ("" for the bare type) -> keys
	byType map[string]map[string]map[domain.QueryKey]struct{}
	// key -> tags it was registered with
	byKey map[domain.QueryKey][]domain.Tag
}

// NewTagIndex func
func NewTagIndex() *TagIndex {
	return &TagIndex{
		byType: make(map[string]map[string]map[domain.QueryKey]struct{}),
		byKey:  make(map[domain.QueryKey][]domain.Tag),
	}
}

// Register indexes key under tags. Registering an already known key replaces its tags.
func (x *TagIndex) Register(key domain.QueryKey, tags []domain.Tag) {
	x.Unregister(key)
	if len(tags) == 0 {
		return
	}
	kept := make([]domain.Tag, 0, len(tags))
	for _, tag := range tags {
		ids, ok := x.byType[tag.Type]
		if !ok {
			ids = make(map[string]map[domain.QueryKey]struct{})
			x.byType[tag.Type] = ids
		}
		keys, ok := ids[tag.ID]
		if !ok {
			keys = make(map[domain.QueryKey]struct{})
			ids[tag.ID] = keys
		}
		if _, dup := keys[key]; dup {
			continue
		}
		keys[key] = struct{}{}
		kept = append(kept, tag)
	}
	x.byKey[key] = kept
}

// Unregister removes key from every tag set
func (x *TagIndex) Unregister(key domain.QueryKey) {
	tags, ok := x.byKey[key]
	if !ok {
		return
	}
	for _, tag := range tags {
		ids := x.byType[tag.Type]
		delete(ids[tag.ID], key)
		if len(ids[tag.ID]) == 0 {
			delete(ids, tag.ID)
		}
		if len(ids) == 0 {
			delete(x.byType, tag.Type)
		}
	}
	delete(x.byKey, key)
}

// Lookup returns, sorted and without duplicates, every key matched by tags.
// A tag with an empty ID matches all keys carrying its type.
func (x *TagIndex) Lookup(tags []domain.Tag) []domain.QueryKey {
	seen := make(map[domain.QueryKey]struct{})
	for _, tag := range tags {
		ids, ok := x.byType[tag.Type]
		if !ok {
			continue
		}
		if tag.ID == "" {
			for _, keys := range ids {
				for key := range keys {
					seen[key] = struct{}{}
				}
			}
			continue
		}
		for key := range ids[tag.ID] {
			seen[key] = struct{}{}
		}
	}

	out := make([]domain.QueryKey, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tags returns the tags key was registered with
func (x *TagIndex) Tags(key domain.QueryKey) []domain.Tag {
	tags := x.byKey[key]
	out := make([]domain.Tag, len(tags))
	copy(out, tags)
	return out
}

// Len returns the number of registered keys
func (x *TagIndex) Len() int {
	return len(x.byKey)
}
