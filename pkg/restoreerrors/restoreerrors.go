// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package restoreerrors

import (
	"errors"

	"github.com/samber/lo"
)

const (
	PackageNotFound  = "PACKAGE_NOT_FOUND"
	MalformedPackage = "MALFORMED_PACKAGE"
	MalformedProject = "MALFORMED_PROJECT"
	InvalidTarget    = "INVALID_TARGET"
	UnknownError     = "UNKNOWN_ERROR"
)

type RestoreError struct {
	Code  string
	Cause error
}

func (r *RestoreError) Error() string {
	if r.Cause != nil {
		return r.Code + ": " + r.Cause.Error()
	}
	return r.Code
}

func (r *RestoreError) MarshalYAML() (interface{}, error) {
	var causeStr string
	if r.Cause != nil {
		causeStr = r.Cause.Error()
	}
	return map[string]interface{}{
		"code":  r.Code,
		"cause": causeStr,
	}, nil
}

func (r *RestoreError) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux struct {
		Code  string `yaml:"code"`
		Cause string `yaml:"cause"`
	}
	if err := unmarshal(&aux); err != nil {
		return err
	}
	r.Code = aux.Code
	if aux.Cause != "" {
		r.Cause = errors.New(aux.Cause)
	}
	return nil
}

func (r *RestoreError) Unwrap() error {
	return r.Cause
}

var _ error = (*RestoreError)(nil)

func NewPackageNotFoundError(cause error) *RestoreError {
	return &RestoreError{
		Code:  PackageNotFound,
		Cause: cause,
	}
}

func NewMalformedPackageError(cause error) *RestoreError {
	return &RestoreError{
		Code:  MalformedPackage,
		Cause: cause,
	}
}

func NewMalformedProjectError(cause error) *RestoreError {
	return &RestoreError{
		Code:  MalformedProject,
		Cause: cause,
	}
}

func NewInvalidTargetError(cause error) *RestoreError {
	return &RestoreError{
		Code:  InvalidTarget,
		Cause: cause,
	}
}

func NewUnknownError(cause error) *RestoreError {
	return &RestoreError{
		Code:  UnknownError,
		Cause: cause,
	}
}

// Standardize returns the first RestoreError in err's tree, or wraps err as UNKNOWN_ERROR
func Standardize(err error) *RestoreError {
	if err == nil {
		return nil
	}

	var resErr *RestoreError
	if errors.As(err, &resErr) {
		return resErr
	}

	return NewUnknownError(err)
}

// All lists every RestoreError joined into err, in order. Errors that are not
// RestoreErrors are standardized.
func All(err error) []*RestoreError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var all []*RestoreError
		for _, e := range joined.Unwrap() {
			all = append(all, All(e)...)
		}
		return all
	}
	return []*RestoreError{Standardize(err)}
}

// Codes lists the codes of every RestoreError joined into err, in order
func Codes(err error) []string {
	if err == nil {
		return nil
	}
	return lo.Map(All(err), func(e *RestoreError, _ int) string { return e.Code })
}
