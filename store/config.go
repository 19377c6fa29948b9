package store

// Config holds configuration for the Client.
type Config struct {
	// Table is the name of the single entity table.
	// Default: "weft_items"
	Table string

	// IndexA1 is the name of the first global secondary index
	// (forward lookups: records by the acting user).
	// Default: "GSI-A1"
	IndexA1 string

	// IndexA2 is the name of the second global secondary index
	// (reverse lookups: records by the target entity).
	// Default: "GSI-A2"
	IndexA2 string
}

// DefaultConfig returns the default table and index names.
func DefaultConfig() Config {
	return Config{
		Table:   "weft_items",
		IndexA1: "GSI-A1",
		IndexA2: "GSI-A2",
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "weft_items"
	}
	if c.IndexA1 == "" {
		c.IndexA1 = "GSI-A1"
	}
	if c.IndexA2 == "" {
		c.IndexA2 = "GSI-A2"
	}
}
