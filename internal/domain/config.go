package domain

import "time"

// Config is the runtime view of the settings the usecases depend on.
type Config struct {
	TokenTTL          time.Duration
	MinPasswordLength int
	RequestTimeout    time.Duration
	DefaultListLimit  int
	MaxListLimit      int
	DefaultScoreLimit int
	MaxContentLength  int
}
