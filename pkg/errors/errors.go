// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Braid Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreDocumentNotFound   Code = "store.document.get.not_found"
	CodeStoreInvalidInput       Code = "store.invalid_input"
	CodeStoreIntegrityViolation Code = "store.integrity.violation"

	CodeIndexDimensionMismatch Code = "index.embedding.dimension_mismatch"
	CodeIndexUnknownAttribute  Code = "index.attribute.unknown"

	CodeEmbedUpstreamFailure Code = "embed.upstream.failure"
	CodeEmbedResponseInvalid Code = "embed.response.invalid"

	CodeQueryRequestInvalid Code = "query.request.invalid"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDocID(value int64) Attr {
	return Field("doc_id", value)
}

func FieldTag(value string) Attr {
	return Field("tag", value)
}

func FieldOp(value string) Attr {
	return Field("op", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeStoreDatabaseFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsDimensionMismatch(err error) bool {
	return reason(CodeOf(err)) == "dimension_mismatch"
}

func IsIntegrityViolation(err error) bool {
	return reason(CodeOf(err)) == "violation"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func Join(errs ...error) error {
	return oops.Code(CodeStoreDatabaseFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
