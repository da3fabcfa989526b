package queue

import "time"

// Config holds queue tuning read from the environment.
type Config struct {
	Concurrency     int           `env:"QUEUE_CONCURRENCY" envDefault:"10"`
	PollInterval    time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	LockTimeout     time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	MaxRetries      int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	RetryDelay      time.Duration `env:"QUEUE_RETRY_DELAY" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Options expands the config into constructor options.
func (c Config) Options() []Option {
	return []Option{
		WithConcurrency(c.Concurrency),
		WithPollInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithMaxRetries(c.MaxRetries),
		WithRetryDelay(c.RetryDelay),
	}
}
