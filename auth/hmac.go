// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0
package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// HMACSigner signs request bodies with the application key shared with the
// remote service.
type HMACSigner struct {
	AppKey string
}

func NewHMACSigner(appKey string) (*HMACSigner, error) {
	var o HMACSigner

	if err := o.Configure(map[string]interface{}{"app_key": appKey}); err != nil {
		return nil, err
	}

	return &o, nil
}

func (o *HMACSigner) Configure(cfg map[string]interface{}) error {
	decoded := struct {
		AppKey string                 `mapstructure:"app_key"`
		Rest   map[string]interface{} `mapstructure:",remain"`
	}{}

	if err := mapstructure.Decode(cfg, &decoded); err != nil {
		return err
	}

	o.AppKey = decoded.AppKey

	if err := o.validate(); err != nil {
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

	return nil
}

// Sign returns the signature of body, which must be the exact bytes that go
// on the wire.
func (o *HMACSigner) Sign(body []byte) (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}

	return Sign([]byte(o.AppKey), body), nil
}

func (o *HMACSigner) validate() error {
	if o.AppKey == "" {
		return errors.New("missing app_key")
	}

	return nil
}
