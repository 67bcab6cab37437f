package animation

import "time"

// DefaultConfig returns a slow breathing pulse.
func DefaultConfig() Config {
	return Config{
		Period:   2 * time.Second,
		Steps:    10,
		MinAlpha: 70,
		MaxAlpha: 255,
	}
}
