package generator

// Config drives the synthetic catalog generator.
type Config struct {
	ProductsPerCategory int
	MaxAlternatives     int
	AlternativeChance   float64
	Seed                int64
}

// DefaultConfig returns baseline settings for a demo catalog.
func DefaultConfig() Config {
	return Config{
		ProductsPerCategory: 12,
		MaxAlternatives:     3,
		AlternativeChance:   0.6,
		Seed:                42,
	}
}
