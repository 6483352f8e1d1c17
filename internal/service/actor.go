package service

import "github.com/groupvial/internal/constants"

// Actor 当前操作人
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}

// IsHost 是否团长
func (a Actor) IsHost() bool {
	return a.Role == constants.RoleHost
}
