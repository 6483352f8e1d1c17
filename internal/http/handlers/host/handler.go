package host

import "github.com/groupvial/internal/provider"

// Handler 区域团长接口处理器，数据范围限定为本人负责的区域
type Handler struct {
	*provider.Container
}

// New 创建团长处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
