package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given .env files into the process environment, or the
// default .env when no path is given. Later files override earlier ones;
// variables already set in the environment before the first call keep their
// value only when no file defines them.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
		return nil
	}

	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", p, err))
		}
		for k, v := range values {
			if err := os.Setenv(k, v); err != nil {
				return errors.Join(ErrLoadingEnvFile, err)
			}
		}
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("Failed to load env files: %v", err))
	}
}

// ResetCache drops every cached configuration. Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[reflect.Type]*cached)
}

// ForceReloadConfig parses the environment into v again and replaces the
// cached copy of its type.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := parse(v); err != nil {
		return err
	}

	e := entryFor(reflect.TypeFor[T]())
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value, e.loaded = *v, true
	return nil
}
