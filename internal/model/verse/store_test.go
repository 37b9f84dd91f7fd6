package verse

import "testing"

func TestSeedHasFallbackVerse(t *testing.T) {
	store := NewMemoryStore(Seed())

	v, ok := store.FindByID(FallbackID)
	if !ok {
		t.Fatalf("fallback verse %s missing from seed", FallbackID)
	}
	if v.Ref() != "2.47" {
		t.Fatalf("unexpected ref %s", v.Ref())
	}
}

func TestSeedIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, v := range Seed() {
		if seen[v.ID] {
			t.Fatalf("duplicate verse id %s", v.ID)
		}
		seen[v.ID] = true
		if v.Shloka == "" || v.EngMeaning == "" {
			t.Fatalf("verse %s lacks text", v.ID)
		}
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].ID = "mutated"

	if _, ok := store.FindByID("mutated"); ok {
		t.Fatal("List should not expose the backing slice")
	}
}
