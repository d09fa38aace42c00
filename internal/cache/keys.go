package cache

// Key identifies a cached value. Keys form a closed, app-namespaced set;
// they are process-wide constants, never user-supplied strings.
type Key string

// Namespace prefixes every persisted key so caremap data cannot collide
// with unrelated rows sharing the backing store.
const Namespace = "caremap"

// Resource keys. Entries under these keys carry the global TTL.
const (
	KeyPrograms   Key = Namespace + ":programs"
	KeyCategories Key = Namespace + ":categories"
	KeyGroups     Key = Namespace + ":groups"
	KeyAreas      Key = Namespace + ":areas"
	KeyMetadata   Key = Namespace + ":metadata"
)

// Auxiliary settings keys. Entries under these keys never expire; they are
// overwritten or removed only by explicit user action.
const (
	KeyFavorites          Key = Namespace + ":favorites"
	KeyThemeMode          Key = Namespace + ":theme_mode"
	KeyWarmMode           Key = Namespace + ":warm_mode"
	KeyUserGroups         Key = Namespace + ":user_groups"
	KeyUserCounty         Key = Namespace + ":user_county"
	KeyOnboardingComplete Key = Namespace + ":onboarding_complete"
)

// ResourceKeys returns the keys whose entries are subject to the TTL.
func ResourceKeys() []Key {
	return []Key{KeyPrograms, KeyCategories, KeyGroups, KeyAreas, KeyMetadata}
}

// IsResourceKey reports whether key holds TTL-bounded resource data.
func IsResourceKey(key Key) bool {
	for _, k := range ResourceKeys() {
		if k == key {
			return true
		}
	}
	return false
}
