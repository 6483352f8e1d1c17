package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
)

// lastSeenInterval 最近访问时间的刷新间隔
const lastSeenInterval = 5 * time.Minute

// UserService 用户影子表服务，身份来自认证方，角色由本系统维护
type UserService struct {
	userRepo        repository.UserRepository
	bootstrapAdmins map[string]struct{}
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, bootstrapAdmins []string) *UserService {
	admins := make(map[string]struct{}, len(bootstrapAdmins))
	for _, subject := range bootstrapAdmins {
		if subject = strings.TrimSpace(subject); subject != "" {
			admins[subject] = struct{}{}
		}
	}
	return &UserService{userRepo: userRepo, bootstrapAdmins: admins}
}

// EnsureFromIdentity 按认证主体获取或创建用户
func (s *UserService) EnsureFromIdentity(_ context.Context, identity Identity) (*models.User, error) {
	subject := strings.TrimSpace(identity.Subject)
	if subject == "" {
		return nil, ErrInvalidArgument
	}
	user, err := s.userRepo.GetBySubject(subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			AuthSubject: subject,
			Email:       strings.TrimSpace(identity.Email),
			Name:        strings.TrimSpace(identity.Name),
			Role:        constants.RoleCustomer,
		}
		if s.isBootstrapAdmin(subject) {
			user.Role = constants.RoleAdmin
		}
		if err := s.userRepo.Create(user); err != nil {
			if !repository.IsUniqueViolation(err) {
				return nil, err
			}
			// 并发首次登录，读取已创建的记录
			user, err = s.userRepo.GetBySubject(subject)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, ErrUserNotFound
			}
		} else {
			logger.Infow("user_created", "user_id", user.ID, "role", user.Role)
			return user, nil
		}
	}

	changed := false
	if s.isBootstrapAdmin(subject) && user.Role != constants.RoleAdmin {
		user.Role = constants.RoleAdmin
		changed = true
	}
	if email := strings.TrimSpace(identity.Email); email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if user.Name == "" && strings.TrimSpace(identity.Name) != "" {
		user.Name = strings.TrimSpace(identity.Name)
		changed = true
	}
	if changed {
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	if user.LastSeenAt == nil || now.Sub(*user.LastSeenAt) > lastSeenInterval {
		if err := s.userRepo.Touch(user.ID, now); err != nil {
			logger.Warnw("user_touch_failed", "user_id", user.ID, "error", err)
		} else {
			user.LastSeenAt = &now
		}
	}
	return user, nil
}

// GetByID 获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile 更新昵称与默认联系方式
func (s *UserService) UpdateProfile(userID uint, name, contactHandle string) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	contactHandle = strings.TrimSpace(contactHandle)
	if utf8.RuneCountInString(name) > maxCustomerNameLength || utf8.RuneCountInString(contactHandle) > maxContactHandleLength {
		return nil, ErrInvalidArgument
	}
	user.Name = name
	user.ContactHandle = contactHandle
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole 管理员修改用户角色，不能修改自己的角色
func (s *UserService) SetRole(actor Actor, userID uint, role string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case constants.RoleAdmin, constants.RoleHost, constants.RoleCustomer:
	default:
		return nil, ErrRoleInvalid
	}
	if actor.UserID == userID {
		return nil, ErrRoleInvalid
	}
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.userRepo.UpdateRole(user.ID, role); err != nil {
		return nil, err
	}
	logger.Infow("user_role_changed",
		"user_id", user.ID,
		"from", user.Role,
		"to", role,
		"actor_user_id", actor.UserID,
	)
	user.Role = role
	return user, nil
}

// List 后台用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

func (s *UserService) isBootstrapAdmin(subject string) bool {
	_, ok := s.bootstrapAdmins[subject]
	return ok
}
