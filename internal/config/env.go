package config

import (
	"os"
	"unicode/utf8"
)

// notText is reported in place of a value that is not valid UTF-8.
const notText = "<not text>"

// Env looks up process-scoped configuration strings.
type Env interface {
	LookupEnv(name string) (string, bool)
}

// EnvFunc adapts a lookup function to Env.
type EnvFunc func(name string) (string, bool)

func (f EnvFunc) LookupEnv(name string) (string, bool) { return f(name) }

// MapEnv is a fixed set of variables, mostly useful in tests.
type MapEnv map[string]string

func (m MapEnv) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// OSEnv reads the process environment.
var OSEnv Env = EnvFunc(os.LookupEnv)

// envVar returns the value of name and whether it was set. A value that is
// set but not valid text is an error, never treated as absent.
func envVar(env Env, name string) (string, bool, error) {
	value, ok := env.LookupEnv(name)
	if !ok {
		return "", false, nil
	}
	if !utf8.ValidString(value) {
		return "", false, InvalidEnvVarError{Name: name, Value: notText}
	}
	return value, true, nil
}

// envParse looks up name and parses it. Any parse failure becomes
// InvalidEnvVarError carrying the raw value.
func envParse[T any](env Env, name string, parse func(string) (T, error)) (T, bool, error) {
	var zero T
	raw, ok, err := envVar(env, name)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := parse(raw)
	if err != nil {
		return zero, false, InvalidEnvVarError{Name: name, Value: raw}
	}
	return v, true, nil
}

// envParseOr is envParse with def substituted when name is unset.
func envParseOr[T any](env Env, name string, parse func(string) (T, error), def T) (T, error) {
	v, ok, err := envParse(env, name, parse)
	if err != nil {
		return v, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// envParseOptional is envParse returning nil when name is unset.
func envParseOptional[T any](env Env, name string, parse func(string) (T, error)) (*T, error) {
	v, ok, err := envParse(env, name, parse)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
