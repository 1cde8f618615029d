// Package ranking assigns and recomputes the integer positions that order
// sibling entities (cards within a board, lists within a board). It is pure:
// callers load siblings, rank them here, and persist the result.
package ranking

import (
	"sort"

	"github.com/google/uuid"
)

// Item is the projection of a sibling that ordering cares about.
type Item struct {
	ID       uuid.UUID
	Position int
}

// PositionForAppend returns the rank for a new sibling added at the end of a
// container that currently holds siblingCount entries.
func PositionForAppend(siblingCount int) int {
	return siblingCount
}

// PositionForInsert returns the rank for inserting at index, clamped to the
// valid range for a container with siblingCount entries.
func PositionForInsert(index, siblingCount int) int {
	if index < 0 {
		return 0
	}
	if index > siblingCount {
		return siblingCount
	}
	return index
}

// Sort orders items ascending by position, ties broken by id so rendering is
// deterministic even while two siblings transiently share a position.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}

// Renumber sorts items and assigns contiguous zero-based positions. It
// reports whether any position changed, so callers can skip a write when the
// container was already contiguous.
func Renumber(items []Item) bool {
	Sort(items)
	changed := false
	for i := range items {
		if items[i].Position != i {
			items[i].Position = i
			changed = true
		}
	}
	return changed
}

// InsertAt places it at index (clamped) and renumbers the result.
func InsertAt(items []Item, it Item, index int) []Item {
	Sort(items)
	index = PositionForInsert(index, len(items))
	items = append(items, Item{})
	copy(items[index+1:], items[index:])
	items[index] = it
	for i := range items {
		items[i].Position = i
	}
	return items
}

// Remove drops the sibling with the given id, if present, and renumbers the
// survivors.
func Remove(items []Item, id uuid.UUID) []Item {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	Renumber(out)
	return out
}

// IndexOf returns the rank of id within items after sorting, or -1.
func IndexOf(items []Item, id uuid.UUID) int {
	Sort(items)
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
