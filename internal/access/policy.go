// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package access

import "github.com/custos-project/custos/internal/auth"

// Operation names evaluated by the HTTP layer. Operations without a policy
// rule are denied, so adding a route means adding its operation here.
const (
	OpRegister      = "auth.register"
	OpRegisterAdmin = "auth.register-admin"
	OpSupportDesk   = "auth.support-desk"
	OpValidateToken = "auth.validate-token"

	OpGroupCreate = "groups.create"
	OpGroupRead   = "groups.read"

	OpTransactionCreate  = "transactions.create"
	OpTransactionRead    = "transactions.read"
	OpTransactionUpdate  = "transactions.update"
	OpTransactionDelete  = "transactions.delete"
	OpTransactionListOwn = "transactions.list-own"
	OpTransactionList    = "transactions.list"
	OpTransactionFile    = "transactions.file"
)

// DefaultPolicy is the operation policy for the Custos API. Order matters:
// the engine takes the first matching rule, so specific entries precede
// pattern entries. An empty role list admits any authenticated principal.
func DefaultPolicy() []Rule {
	return []Rule{
		{Pattern: OpRegister, Roles: []auth.Role{auth.RoleAdmin, auth.RoleSuperAdmin}},
		{Pattern: OpRegisterAdmin, Roles: []auth.Role{auth.RoleSuperAdmin}},
		{Pattern: OpSupportDesk, Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleAdmin, auth.RolePowerUser}},
		{Pattern: OpValidateToken, Roles: nil},

		{Pattern: "groups.*", Roles: []auth.Role{auth.RoleAdmin, auth.RoleSuperAdmin}},

		{Pattern: OpTransactionList, Roles: []auth.Role{auth.RolePowerUser, auth.RoleSupportDesk}},
		{Pattern: OpTransactionListOwn, Roles: []auth.Role{auth.RoleUser, auth.RolePowerUser}},
		{Pattern: OpTransactionFile, Roles: []auth.Role{auth.RoleUser, auth.RolePowerUser, auth.RoleSupportDesk}},
		{Pattern: "transactions.*", Roles: []auth.Role{auth.RoleUser}},
	}
}
