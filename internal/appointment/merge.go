package appointment

// MergeByID folds items into list keyed by ID. An item whose ID is already present
// replaces that entry in place; new IDs are appended in order. list is not modified.
func MergeByID(list []Appointment, items ...Appointment) []Appointment {
	out := make([]Appointment, len(list), len(list)+len(items))
	copy(out, list)
	index := make(map[string]int, len(out))
	for i, a := range out {
		index[a.ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.ID]; ok {
			out[i] = item
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
