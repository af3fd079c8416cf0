package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cached holds the parsed value of one config type. Its mutex serializes the
// first parse so concurrent callers never parse the same type twice.
type cached struct {
	mu     sync.Mutex
	value  any
	loaded bool
}

var (
	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]*cached)

	defaultEnvLoaded sync.Once
)

func entryFor(t reflect.Type) *cached {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	e, ok := cache[t]
	if !ok {
		e = &cached{}
		cache[t] = e
	}
	return e
}

// Load parses the environment into v and caches the result per type: later
// calls for the same T copy the cached value without parsing again.
//
// The default .env file is read once, before the first parse, if it exists.
// A failed parse or validation is not cached.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	e := entryFor(reflect.TypeFor[T]())
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		*v = e.value.(T)
		return nil
	}
	if err := parse(v); err != nil {
		return err
	}
	e.value, e.loaded = *v, true
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// Validator is implemented by configs that check their own invariants after
// parsing. A failing Validate is reported as ErrInvalidConfig.
type Validator interface {
	Validate() error
}

func parse[T any](v *T) error {
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}
