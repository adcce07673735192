package redis

const (
	// KeyPrefix namespaces every key written by this app
	KeyPrefix = "collections:"
	// KeyPrefixSlot is the prefix for collection slots
	KeyPrefixSlot = KeyPrefix + "slot:"
	// KeyPrefixCacheGeneration is the prefix for the hash holding one cache generation
	KeyPrefixCacheGeneration = KeyPrefix + "cache:gen:"
	// KeyCacheGenerations is the set of all cache generation names
	KeyCacheGenerations = KeyPrefix + "cache:generations"
)

// SlotKey returns the Redis key for a collection slot
func SlotKey(slot string) string {
	return KeyPrefixSlot + slot
}

// CacheGenerationKey returns the Redis key for a cache generation's entries
func CacheGenerationKey(name string) string {
	return KeyPrefixCacheGeneration + name
}

// CacheGenerationsKey returns the key for the set of all generation names
func CacheGenerationsKey() string {
	return KeyCacheGenerations
}
