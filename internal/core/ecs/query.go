package ecs

import "sort"

// Each2 visits entities that have both component A and B, in ascending
// EntityID order. It collects ids from the smaller store and checks the
// larger one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		ids := sortedIDs(sa.data)
		for _, id := range ids {
			if b, ok := sb.data[id]; ok {
				fn(id, sa.data[id], b)
			}
		}
	} else {
		ids := sortedIDs(sb.data)
		for _, id := range ids {
			if a, ok := sa.data[id]; ok {
				fn(id, a, sb.data[id])
			}
		}
	}
}

// Each3 visits entities that have components A, B, and C, in ascending
// EntityID order.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	ids := sortedIDs(sa.data)
	for _, id := range ids {
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		c, ok := sc.data[id]
		if !ok {
			continue
		}
		fn(id, sa.data[id], b, c)
	}
}

func sortedIDs[T any](m map[EntityID]*T) []EntityID {
	ids := make([]EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
