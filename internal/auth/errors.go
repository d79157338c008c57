// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested principal does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a create would violate email uniqueness.
var ErrDuplicateEmail = errors.New("email already exists")
