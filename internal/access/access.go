// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package access provides role-based authorization for Custos.
//
// Authorization is deliberately separate from authentication: the auth
// package establishes WHO a principal is, this package decides WHAT an
// established principal may do. Decisions are pure functions of the
// principal's role and the operation's requirement; no I/O happens on the
// decision path.
package access

import "github.com/custos-project/custos/internal/auth"

// Decision is the outcome of an authorization check. A denied decision
// carries a reason for logs and error context; the reason is never shown
// verbatim to API clients.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with a reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize checks a principal's role against a requirement. An empty
// requirement allows any principal; a principal whose role is outside the
// closed role set is denied regardless of the requirement.
func Authorize(required []auth.Role, principal auth.Role) Decision {
	if !principal.Valid() {
		return Deny("principal role not recognized")
	}
	if len(required) == 0 {
		return Allow()
	}
	for _, r := range required {
		if principal == r {
			return Allow()
		}
	}
	return Deny("role does not satisfy requirement")
}
