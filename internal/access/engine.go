// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package access

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/auth"
)

// Rule binds an operation pattern to the roles that may perform matching
// operations. Patterns use glob syntax with '.' as the segment separator,
// so "groups.*" covers "groups.create" and "groups.read". An empty role
// list means any authenticated principal.
type Rule struct {
	Pattern string
	Roles   []auth.Role
}

type compiledRule struct {
	pattern string
	glob    glob.Glob
	roles   []auth.Role
}

// Engine evaluates operations against an ordered rule list. Rules are
// immutable after construction; evaluation is first match wins, and an
// operation no rule covers is denied.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles a rule list into an Engine. Returns an error if any
// pattern fails to compile or names a role outside the closed set.
func NewEngine(rules []Rule) (*Engine, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		g, err := glob.Compile(rule.Pattern, '.')
		if err != nil {
			return nil, oops.In("access").
				Code("ACCESS_INVALID_PATTERN").
				With("pattern", rule.Pattern).
				Wrap(err)
		}
		for _, role := range rule.Roles {
			if !role.Valid() {
				return nil, oops.In("access").
					Code("ACCESS_INVALID_ROLE").
					With("pattern", rule.Pattern).
					With("role", string(role)).
					Errorf("unknown role in rule")
			}
		}
		compiled = append(compiled, compiledRule{pattern: rule.Pattern, glob: g, roles: rule.Roles})
	}
	return &Engine{rules: compiled}, nil
}

// Authorize evaluates an operation for a principal. The first rule whose
// pattern matches the operation decides; operations without a matching
// rule are denied.
func (e *Engine) Authorize(operation string, principal auth.Role) Decision {
	for _, rule := range e.rules {
		if !rule.glob.Match(operation) {
			continue
		}
		decision := Authorize(rule.roles, principal)
		recordDecision(operation, decision)
		return decision
	}
	decision := Deny("no policy covers operation")
	recordDecision(operation, decision)
	return decision
}
