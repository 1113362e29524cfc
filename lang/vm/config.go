package vm

import "github.com/caarlos0/env/v6"

// Config holds the VM's tunable knobs, normally loaded from the process
// environment via github.com/caarlos0/env so the CLI driver never has to
// parse these itself.
type Config struct {
	// StressGC forces a full collection on every allocation, trading all
	// performance for maximum GC bug surfacing; intended for tests.
	StressGC bool `env:"EMBER_STRESS_GC" envDefault:"false"`

	// GCGrowthFactor multiplies bytes-in-use after a collection to compute
	// the next collection threshold.
	GCGrowthFactor int `env:"EMBER_GC_GROWTH_FACTOR" envDefault:"2"`

	// InitialGCThreshold is the byte count that must be allocated before the
	// very first collection can run.
	InitialGCThreshold int `env:"EMBER_INITIAL_GC_THRESHOLD" envDefault:"1048576"`

	// MaxFrames bounds the call-frame stack; exceeding it is a "Stack
	// overflow" runtime error rather than a Go stack overflow.
	MaxFrames int `env:"EMBER_MAX_FRAMES" envDefault:"64"`
}

// LoadConfig reads Config from the environment, applying the documented
// defaults for anything unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
