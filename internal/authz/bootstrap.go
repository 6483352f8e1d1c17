package authz

import (
	"fmt"

	"github.com/groupvial/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵：customer < host < admin
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleCustomer,
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/me/profile", Action: "PUT"},
				{Object: "/me/dashboard", Action: "GET"},
				{Object: "/checkout", Action: "POST"},
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:code", Action: "GET"},
				{Object: "/orders/:code/cancel", Action: "POST"},
			},
		},
		{
			Role:     constants.RoleHost,
			Inherits: []string{constants.RoleCustomer},
			Policies: []Policy{
				{Object: "/host/*", Action: "*"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{constants.RoleHost},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色继承与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}

	for _, seed := range BuiltinRoleSeeds() {
		role := rolePrefix + seed.Role
		for _, parent := range seed.Inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, rolePrefix+parent); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return ErrActionRequired
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

func builtinPolicyIndex() map[string]struct{} {
	index := make(map[string]struct{})
	for _, seed := range BuiltinRoleSeeds() {
		for _, policy := range seed.Policies {
			index[policyKey(rolePrefix+seed.Role, NormalizeObject(policy.Object), NormalizeAction(policy.Action))] = struct{}{}
		}
	}
	return index
}
