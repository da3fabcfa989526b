package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.Mutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into the provided configuration struct.
// Each configuration type is parsed once per process; subsequent calls for
// the same type return the cached value. A .env file in the working
// directory is loaded on first use if present.
//
// Example:
//
//	type QueueConfig struct {
//		Concurrency int           `env:"QUEUE_CONCURRENCY" envDefault:"10"`
//		MaxRetries  int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
//		RetryDelay  time.Duration `env:"QUEUE_RETRY_DELAY" envDefault:"30s"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; missing file is not an error.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Store a copy so later callers cannot mutate the cached value.
	loaded[key] = *v
	return nil
}

// MustLoad works like Load but panics when loading fails. Intended for
// configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
