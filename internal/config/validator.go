// internal/config/validator.go
//
// go-playground/validator with one custom rule.
//
// `Load` calls `validateStruct` immediately after it unmarshals the merged
// Koanf tree.  Any failure aborts startup; configuration errors are the one
// class of startup error that is never degraded.
//
// Custom tags
// -----------
//   origin  http(s)://host[:port] with at most one `*`, no path

package config

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = func() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("origin", validOrigin)
	return val
}()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

func validOrigin(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Count(s, "*") > 1 {
		return false
	}
	u, err := url.Parse(strings.Replace(s, "*", "wildcard", 1))
	if err != nil || u.Host == "" {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && (u.Path == "" || u.Path == "/") && u.RawQuery == ""
}
