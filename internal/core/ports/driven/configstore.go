package driven

// ConfigStore provides access to persisted settings.
// Keys use dot notation matching the TOML tables, e.g. "chunking.size".
type ConfigStore interface {
	// Get retrieves a raw value. The boolean reports whether the key exists.
	Get(key string) (any, bool)

	// GetString returns "" if the key is absent or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is absent or not numeric.
	GetInt(key string) int

	// GetFloat returns 0 if the key is absent or not numeric.
	GetFloat(key string) float64

	// GetBool returns false if the key is absent or not a boolean.
	GetBool(key string) bool

	// Keys returns every stored key in sorted order.
	Keys() []string

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Unset removes a key and persists immediately.
	Unset(key string) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
