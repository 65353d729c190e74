// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/veraison/humancode/common"
)

const (
	DefaultBaseURL             = "https://humancodeai.com"
	DefaultListen              = ":8080"
	DefaultCallbackURL         = "http://localhost:8080/verify"
	DefaultVerificationHumanID = "123456"

	// EnvPrefix is prepended to the environment variable derived from each
	// flag name, e.g. --app-id is read from HUMANCODE_APP_ID.
	EnvPrefix = "HUMANCODE"
)

// Options holds the process configuration. It is filled once at startup and
// not modified afterwards.
type Options struct {
	AppID   string `mapstructure:"app_id" validate:"required"`
	AppKey  string `mapstructure:"app_key" validate:"required"`
	Debug   bool   `mapstructure:"debug"`
	BaseURL string `mapstructure:"base_url" validate:"required"`

	Listen      string        `mapstructure:"listen" validate:"required"`
	CallbackURL string        `mapstructure:"callback_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=0s"`
	CACerts     []string      `mapstructure:"ca_certs"`

	// VerificationHumanID is used by the verification URL endpoint when the
	// caller does not name a human.
	VerificationHumanID string `mapstructure:"verification_human_id"`

	// AllowedOrigins are the browser origins granted CORS access
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// ConfigFile is only read from the command line or the environment
	ConfigFile string `mapstructure:"-"`
}

var validate = validator.New()

// names used when reporting invalid fields
var fieldNames = map[string]string{
	"AppID":       "app id",
	"AppKey":      "app key",
	"BaseURL":     "base URL",
	"Listen":      "listen address",
	"CallbackURL": "callback URL",
}

// NewOptions returns Options populated with defaults
func NewOptions() *Options {
	return &Options{
		BaseURL:             DefaultBaseURL,
		Listen:              DefaultListen,
		CallbackURL:         DefaultCallbackURL,
		Timeout:             common.DefaultTimeout,
		VerificationHumanID: DefaultVerificationHumanID,
		AllowedOrigins:      []string{"*"},
	}
}

// AddFlags binds the options to fs, using the current values as defaults.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.AppID, "app-id", o.AppID, "application id issued by the human verification service")
	fs.StringVar(&o.AppKey, "app-key", o.AppKey, "application key used to sign requests")
	fs.BoolVar(&o.Debug, "debug", o.Debug, "dump outgoing requests and incoming responses")
	fs.StringVar(&o.BaseURL, "base-url", o.BaseURL, "base URL of the human verification service")
	fs.StringVar(&o.Listen, "listen", o.Listen, "address the HTTP server listens on")
	fs.StringVar(&o.CallbackURL, "callback-url", o.CallbackURL, "URL the authentication pages redirect back to")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "timeout of each call to the human verification service")
	fs.StringSliceVar(&o.CACerts, "ca-cert", o.CACerts, "additional CA certificates (PEM) trusted for the service")
	fs.StringVar(&o.VerificationHumanID, "verification-human-id", o.VerificationHumanID,
		"human id used for verification URLs when the request does not supply one")
	fs.StringSliceVar(&o.AllowedOrigins, "allowed-origins", o.AllowedOrigins,
		`origins allowed to call the endpoints from a browser ("*" for any, empty to disable CORS)`)
	fs.StringVar(&o.ConfigFile, FileFlag, o.ConfigFile, "YAML or JSON file read before the environment and flags")
}

// Decode fills the options from a generic map, as produced by a config file
// parser. Keys are the mapstructure tags of Options.
func (o *Options) Decode(cfg map[string]interface{}) error {
	decoded := struct {
		Options `mapstructure:",squash"`
		Rest    map[string]interface{} `mapstructure:",remain"`
	}{Options: *o}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(cfg); err != nil {
		return err
	}

	if len(decoded.Rest) > 0 {
		var unexpected []string
		for k := range decoded.Rest {
			unexpected = append(unexpected, k)
		}
		sort.Strings(unexpected)
		return fmt.Errorf("unexpected fields in config: %s",
			strings.Join(unexpected, ", "))
	}

	*o = decoded.Options

	return nil
}

// Validate makes sure that the options are in good shape
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(o, verrs[0])
		}
		return err
	}

	if _, err := common.ParseBaseURI(o.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	return nil
}

func fieldError(o *Options, fe validator.FieldError) error {
	name, ok := fieldNames[fe.StructField()]
	if !ok {
		name = fe.StructField()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing %s", name)
	case "min":
		return fmt.Errorf("negative timeout: %s", o.Timeout)
	default:
		return fmt.Errorf("invalid %s: %v", name, fe.Value())
	}
}

// EnvKey returns the environment variable consulted for the flag name
func EnvKey(prefix, name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// LoadEnv sets every flag of fs for which an environment variable exists.
// It must run before fs.Parse so that command line values take precedence.
func LoadEnv(fs *pflag.FlagSet, prefix string) error {
	var errs []error

	fs.VisitAll(func(f *pflag.Flag) {
		key := EnvKey(prefix, f.Name)
		if val, ok := os.LookupEnv(key); ok {
			if err := f.Value.Set(val); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	})

	return errors.Join(errs...)
}

// Print logs the effective value of every flag. Secrets are masked.
func Print(log logr.Logger, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		log.Info("config", "key", f.Name, "val", maskSecret(f.Name, f.Value.String()), "changed", f.Changed)
	})
}

func maskSecret(k, v string) string {
	k = strings.ToLower(k)
	if strings.Contains(k, "key") || strings.Contains(k, "password") || strings.Contains(k, "secret") {
		return strings.Repeat("*", len(v))
	}
	return v
}
