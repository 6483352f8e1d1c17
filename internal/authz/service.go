package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
)

var (
	ErrUnavailable     = errors.New("authz service unavailable")
	ErrUnknownRole     = errors.New("unknown role")
	ErrActionRequired  = errors.New("action is required")
	ErrProtectedPolicy = errors.New("builtin policy cannot be revoked")
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
	Builtin bool   `json:"builtin"`
}

// RoleInfo 角色与继承关系
type RoleInfo struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
}

// Service Casbin 授权服务
// 角色集合固定（customer/host/admin），以 role:<name> 作为授权主体；
// 管理员只能在既有角色上追加或撤销非预置策略
type Service struct {
	enforcer *casbin.SyncedEnforcer
	builtin  map[string]struct{}
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer, builtin: builtinPolicyIndex()}, nil
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, ErrUnavailable
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceRole 按用户角色判定授权
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.Enforce(subject, obj, act)
}

// ListRoles 列出角色及其继承链（直接父角色）
func (s *Service) ListRoles() ([]RoleInfo, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	parents := make(map[string][]string)
	for _, rule := range rules {
		if len(rule) < 2 {
			continue
		}
		parents[rule[0]] = append(parents[rule[0]], rule[1])
	}

	roles := make([]RoleInfo, 0, len(BuiltinRoleSeeds()))
	for _, seed := range BuiltinRoleSeeds() {
		role := rolePrefix + seed.Role
		inherits := parents[role]
		sort.Strings(inherits)
		if inherits == nil {
			inherits = []string{}
		}
		roles = append(roles, RoleInfo{Role: role, Inherits: inherits})
	}
	return roles, nil
}

// GrantRolePolicy 为角色追加策略
func (s *Service) GrantRolePolicy(role, object, action string) error {
	normalizedRole, normalizedObject, normalizedAction, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	if _, err := s.enforcer.AddPolicy(normalizedRole, normalizedObject, normalizedAction); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略，预置策略不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	normalizedRole, normalizedObject, normalizedAction, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	if s.isBuiltin(normalizedRole, normalizedObject, normalizedAction) {
		return ErrProtectedPolicy
	}
	if _, err := s.enforcer.RemovePolicy(normalizedRole, normalizedObject, normalizedAction); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色直接持有的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}

	rules, err := s.enforcer.GetFilteredPolicy(0, normalizedRole)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policy := Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		}
		policy.Builtin = s.isBuiltin(policy.Subject, policy.Object, policy.Action)
		policies = append(policies, policy)
	}
	return policies, nil
}

func (s *Service) isBuiltin(role, object, action string) bool {
	_, ok := s.builtin[policyKey(role, object, action)]
	return ok
}

func normalizePolicy(role, object, action string) (string, string, string, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return "", "", "", err
	}
	normalizedAction := NormalizeAction(action)
	if normalizedAction == "" {
		return "", "", "", ErrActionRequired
	}
	return normalizedRole, NormalizeObject(object), normalizedAction, nil
}

func policyKey(role, object, action string) string {
	return role + " " + object + " " + action
}

// NormalizeRole 统一角色名称，仅接受预置角色
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	for _, seed := range BuiltinRoleSeeds() {
		if seed.Role == name {
			return rolePrefix + name, nil
		}
	}
	return "", ErrUnknownRole
}

// NormalizeObject 统一授权资源路径
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
