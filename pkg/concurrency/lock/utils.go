package lock

// deleteFromSet removes key from the set stored under outer, dropping the
// outer entry once the set is empty so the tables never hold empty entries.
func deleteFromSet[K, E comparable, V any](m map[K]map[E]V, outer K, key E) bool {
	set, ok := m[outer]
	if !ok {
		return false
	}
	if _, ok := set[key]; !ok {
		return false
	}
	delete(set, key)
	if len(set) == 0 {
		delete(m, outer)
	}
	return true
}

// addToSet stores value under (outer, key), creating the inner map on demand.
func addToSet[K, E comparable, V any](m map[K]map[E]V, outer K, key E, value V) {
	set, ok := m[outer]
	if !ok {
		set = make(map[E]V)
		m[outer] = set
	}
	set[key] = value
}
