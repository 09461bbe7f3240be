// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package store

import (
	"regexp"

	braiderr "github.com/braid-db/braid/pkg/errors"
)

// Metric names the distance function fixed per collection. The same metric
// is used for index build and query; mixing metrics is a schema error.
type Metric string

const (
	MetricL2     Metric = "l2"
	MetricCosine Metric = "cosine"
)

// AttributeType is the declared type of a native attribute column on the
// vector index.
type AttributeType string

const (
	AttributeText    AttributeType = "text"
	AttributeInteger AttributeType = "integer"
	AttributeFloat   AttributeType = "float"
)

// AttributeField declares one scalar field stored alongside each vector and
// filterable natively by the index.
type AttributeField struct {
	Name string
	Type AttributeType
}

// Schema is the collection declaration, fixed at creation time. All vectors
// in a collection share the dimension and metric; attribute columns must be
// declared here before a vector entry may reference them.
type Schema struct {
	Dimensions int
	Metric     Metric
	Attributes []AttributeField
	Chunked    bool
}

var attrNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Attribute returns the declared field with the given name.
func (s Schema) Attribute(name string) (AttributeField, bool) {
	for _, f := range s.Attributes {
		if f.Name == name {
			return f, true
		}
	}
	return AttributeField{}, false
}

// Validate checks the schema declaration itself.
func (s Schema) Validate() error {
	if s.Dimensions <= 0 {
		return braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
			"collection dimensions must be positive, got %d", s.Dimensions)
	}

	switch s.Metric {
	case MetricL2, MetricCosine:
	default:
		return braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
			"unsupported distance metric %q", s.Metric)
	}

	seen := make(map[string]bool, len(s.Attributes))
	for _, f := range s.Attributes {
		// Attribute names end up in DDL and query text, so they must be
		// plain identifiers.
		if !attrNameRE.MatchString(f.Name) {
			return braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
				"attribute field name %q is not a valid identifier", f.Name)
		}
		if seen[f.Name] {
			return braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
				"duplicate attribute field %q", f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case AttributeText, AttributeInteger, AttributeFloat:
		default:
			return braiderr.Errorf(braiderr.CodeConfigValidateInvalidValue,
				"attribute %q has unsupported type %q", f.Name, f.Type)
		}
	}

	return nil
}
