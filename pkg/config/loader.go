package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option adjusts a single Parse call.
type Option func(*options)

type options struct {
	prefix   string
	envFiles []string
	environ  map[string]string
}

// WithPrefix prepends prefix to every env tag, e.g. "NODE2_" reads
// NODE2_SESSION_BACKEND_ADDRESS for `env:"SESSION_BACKEND_ADDRESS"`.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvFiles loads the given dotenv files before parsing. Missing files are
// an error; values already present in the process environment win.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.envFiles = append(o.envFiles, paths...) }
}

// WithEnviron parses from the given map instead of the process environment.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// Parse reads T from the environment without caching.
func Parse[T any](opts ...Option) (T, error) {
	var (
		v T
		o options
	)
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.envFiles) > 0 {
		if err := godotenv.Load(o.envFiles...); err != nil {
			return v, errors.Join(ErrEnvFile, err)
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}

	if err := env.ParseWithOptions(&v, envOpts); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// cache holds one parsed value per configuration type.
var cache = struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}{values: make(map[reflect.Type]any)}

var defaultEnvLoaded sync.Once

// Load parses the process environment into v once per type and returns the
// cached copy afterwards. A .env file in the working directory is loaded on
// first use when present.
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cached, ok := cache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	parsed, err := Parse[T]()
	if err != nil {
		return err
	}

	cache.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
