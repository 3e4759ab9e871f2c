package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// loadFromEnv overlays LINGOKIT_* environment variables onto cfg. Variable
// names come from the `env` struct tags; nested sections are walked so their
// tags apply too. Unset variables leave the existing value alone.
func loadFromEnv(cfg *Config) error {
	return overlayEnv(reflect.ValueOf(cfg).Elem())
}

func overlayEnv(section reflect.Value) error {
	typ := section.Type()

	for i := 0; i < section.NumField(); i++ {
		field := section.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Time{}) {
			if err := overlayEnv(field); err != nil {
				return err
			}
			continue
		}

		name := typ.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := assign(field, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// assign parses raw into the tagged field. The config surface only uses
// strings, bools, ints, durations, and comma-separated string lists.
func assign(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(v)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(v)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(raw, ",")
		list := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, part := range parts {
			list.Index(i).SetString(strings.TrimSpace(part))
		}
		field.Set(list)

	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}

	return nil
}
