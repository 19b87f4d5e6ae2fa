package config

import (
	"fmt"
	"os"
)

// Source names where an effective config value comes from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	Source Source
}

// ShowAll returns the effective value of every non-secret key and where it was set.
func ShowAll() ([]KeyInfo, error) {
	b, err := newFileBackend(ConfigFilePath())
	if err != nil {
		return nil, err
	}
	return showAllWith(b)
}

func showAllWith(b ConfigBackend) ([]KeyInfo, error) {
	cfg, err := loadWith(b)
	if err != nil {
		return nil, err
	}

	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		info := KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
			Source: SourceDefault,
		}
		if raw, ok, _ := b.GetString(s.key); ok && raw != "" {
			info.Source = SourceFile
		}
		if os.Getenv(s.env) != "" {
			info.Source = SourceEnv
		}
		result = append(result, info)
	}
	return result, nil
}

// SetKey validates value and writes it to the config file.
func SetKey(key, value string) error {
	b, err := newFileBackend(ConfigFilePath())
	if err != nil {
		return err
	}
	return setKeyWith(b, key, value)
}

func setKeyWith(b ConfigBackend, key, value string) error {
	s, err := lookupSpec(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if s.typ == kInt {
		return b.SetInt(key, v.(int))
	}
	return b.SetString(key, value)
}

// UnsetKey removes key from the config file so its default applies again.
func UnsetKey(key string) error {
	b, err := newFileBackend(ConfigFilePath())
	if err != nil {
		return err
	}
	return unsetKeyWith(b, key)
}

func unsetKeyWith(b ConfigBackend, key string) error {
	if _, err := lookupSpec(key); err != nil {
		return err
	}
	return b.Delete(key)
}

func lookupSpec(key string) (keySpec, error) {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return keySpec{}, fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
		}
		return s, nil
	}
	return keySpec{}, fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
