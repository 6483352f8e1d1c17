package host

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListMyRegions 本人负责的区域
func (h *Handler) ListMyRegions(c *gin.Context) {
	actor, ok := handlershared.GetActor(c)
	if !ok {
		return
	}
	regions, err := h.RegionService.ListForHost(actor)
	if err != nil {
		rules := handlershared.ConcatMappedErrors(handlershared.RegionErrorRules, handlershared.CommonErrorRules)
		handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, "error.region_fetch_failed")
		return
	}
	response.Success(c, regions)
}
