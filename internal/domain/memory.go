package domain

// Memory is the long-lived, per-user preference record. Empty string
// means "not set"; the record survives across sessions.
type Memory struct {
	LastOrder          string
	Cuisine            string
	Mood               string
	Occasion           string
	ServiceType        ServiceType
	SelectedRestaurant string
}

// MemoryUpdate is a partial merge against a Memory record. A nil field
// leaves the stored value alone; a pointer to the empty string clears
// it. Explicit clear is the only way to drop a value.
type MemoryUpdate struct {
	LastOrder          *string
	Cuisine            *string
	Mood               *string
	Occasion           *string
	ServiceType        *ServiceType
	SelectedRestaurant *string
}

// Set returns a pointer suitable for a MemoryUpdate field.
func Set[T any](v T) *T { return &v }

// IsZero reports whether the update would change nothing.
func (u MemoryUpdate) IsZero() bool {
	return u.LastOrder == nil && u.Cuisine == nil && u.Mood == nil &&
		u.Occasion == nil && u.ServiceType == nil && u.SelectedRestaurant == nil
}

// Apply merges the update into m, field by field.
func (m *Memory) Apply(u MemoryUpdate) {
	if u.LastOrder != nil {
		m.LastOrder = *u.LastOrder
	}
	if u.Cuisine != nil {
		m.Cuisine = *u.Cuisine
	}
	if u.Mood != nil {
		m.Mood = *u.Mood
	}
	if u.Occasion != nil {
		m.Occasion = *u.Occasion
	}
	if u.ServiceType != nil {
		m.ServiceType = *u.ServiceType
	}
	if u.SelectedRestaurant != nil {
		m.SelectedRestaurant = *u.SelectedRestaurant
	}
}
