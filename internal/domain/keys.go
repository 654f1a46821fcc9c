package domain

// KeyPrefix is the namespace for every key this service writes to the cache.
const KeyPrefix = "byshoes:"
