package ecs

// Intersect returns the entity indices present in every set. It walks the
// smallest set and probes the rest, so the cost follows the rarest
// component. Order follows the smallest set's dense order.
func Intersect(sets ...*SparseSet) []int {
	if len(sets) == 0 {
		return nil
	}
	smallest := 0
	for i, s := range sets {
		if s == nil {
			return nil
		}
		if s.Len() < sets[smallest].Len() {
			smallest = i
		}
	}

	base := sets[smallest].Entities()
	out := make([]int, 0, len(base))
	for _, id := range base {
		if inAll(id, sets, smallest) {
			out = append(out, id)
		}
	}
	return out
}

func inAll(id int, sets []*SparseSet, skip int) bool {
	for i, s := range sets {
		if i != skip && !s.Has(id) {
			return false
		}
	}
	return true
}
