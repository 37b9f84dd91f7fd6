package verse

// Store exposes verse lookup for the retriever and HTTP handlers.
type Store interface {
	List() []Verse
	FindByID(id string) (Verse, bool)
}

// MemoryStore implements Store over an in-memory slice.
type MemoryStore struct {
	items []Verse
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied verses.
func NewMemoryStore(items []Verse) *MemoryStore {
	return &MemoryStore{items: append([]Verse(nil), items...)}
}

// List returns every verse in corpus order.
func (s *MemoryStore) List() []Verse {
	return append([]Verse(nil), s.items...)
}

// FindByID looks up a verse by identifier such as "BG2.47".
func (s *MemoryStore) FindByID(id string) (Verse, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Verse{}, false
}
