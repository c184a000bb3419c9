package cart

// Snapshot is the complete, ordered set of cart lines at a point in time.
// Items are unique by ID. Snapshot values are treated as immutable:
// every mutating method returns a new Snapshot and leaves the receiver untouched.
type Snapshot []Item

// EmptySnapshot returns a snapshot with no items
func EmptySnapshot() Snapshot {
	return Snapshot{}
}

// Len returns the number of distinct lines
func (s Snapshot) Len() int {
	return len(s)
}

// IsEmpty reports whether the snapshot has no lines
func (s Snapshot) IsEmpty() bool {
	return len(s) == 0
}

// Find returns the line with the given id
func (s Snapshot) Find(itemID string) (Item, bool) {
	for _, item := range s {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Merge adds quantity to the line for the same product variant, or appends a new line.
func (s Snapshot) Merge(item Item) Snapshot {
	out := s.Clone()
	for idx := range out {
		if out[idx].ID == item.ID {
			out[idx].Quantity += item.Quantity
			return out
		}
	}
	return append(out, item)
}

// Remove drops the line with the given id. Unknown ids leave the snapshot unchanged.
func (s Snapshot) Remove(itemID string) Snapshot {
	out := make(Snapshot, 0, len(s))
	for _, item := range s {
		if item.ID != itemID {
			out = append(out, item)
		}
	}
	return out
}

// Upsert writes item over the line with the same ID, keeping its position,
// or appends it when the line is absent. A quantity below 1 removes the line.
func (s Snapshot) Upsert(item Item) Snapshot {
	if item.Quantity < 1 {
		return s.Remove(item.ID)
	}
	out := s.Clone()
	for idx := range out {
		if out[idx].ID == item.ID {
			out[idx] = item
			return out
		}
	}
	return append(out, item)
}

// ItemCount returns the sum of quantities
func (s Snapshot) ItemCount() int {
	count := 0
	for _, item := range s {
		count += item.Quantity
	}
	return count
}

// Normalize drops lines with a non-positive quantity and collapses duplicate ids,
// keeping the first occurrence's position and summing quantities.
func (s Snapshot) Normalize() Snapshot {
	out := make(Snapshot, 0, len(s))
	index := make(map[string]int, len(s))
	for _, item := range s {
		if item.Quantity < 1 {
			continue
		}
		if pos, ok := index[item.ID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// Equal reports whether both snapshots hold the same lines in the same order
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for idx := range s {
		if !s[idx].Equal(other[idx]) {
			return false
		}
	}
	return true
}
