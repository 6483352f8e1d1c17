package admin

import (
	"strings"

	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListAdmin(category, search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		respondProductError(c, err, "error.product_fetch_failed")
		return
	}

	response.Success(c, product)
}

// ====================  商品管理  ====================

// CreateProductRequest 创建/更新商品请求
type CreateProductRequest struct {
	Slug               string                 `json:"slug" binding:"required"`
	Name               string                 `json:"name" binding:"required"`
	Category           string                 `json:"category"`
	Description        string                 `json:"description"`
	PricePerVial       models.Money           `json:"price_per_vial"`
	PricePerBox        models.Money           `json:"price_per_box"`
	VialsPerBox        int                    `json:"vials_per_box"`
	Image              string                 `json:"image"`
	SpecificationsJSON map[string]interface{} `json:"specifications"`
	IsActive           *bool                  `json:"is_active"`
	SortOrder          int                    `json:"sort_order"`
}

func (r CreateProductRequest) toServiceInput() service.CreateProductInput {
	return service.CreateProductInput{
		Slug:               r.Slug,
		Name:               r.Name,
		Category:           r.Category,
		Description:        r.Description,
		PricePerVial:       r.PricePerVial,
		PricePerBox:        r.PricePerBox,
		VialsPerBox:        r.VialsPerBox,
		Image:              r.Image,
		SpecificationsJSON: r.SpecificationsJSON,
		IsActive:           r.IsActive,
		SortOrder:          r.SortOrder,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Create(c.Request.Context(), req.toServiceInput())
	if err != nil {
		respondProductError(c, err, "error.product_save_failed")
		return
	}

	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "slug", product.Slug)
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Update(c.Request.Context(), id, req.toServiceInput())
	if err != nil {
		respondProductError(c, err, "error.product_save_failed")
		return
	}

	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		respondProductError(c, err, "error.product_delete_failed")
		return
	}

	requestLog(c).Infow("admin_product_deleted", "product_id", id)
	response.Success(c, nil)
}

// ====================  文件上传  ====================

// UploadFile 图片上传
func (h *Handler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.image_invalid", nil)
		return
	}
	scene := c.DefaultPostForm("scene", "product")

	url, err := h.ImageService.SaveFile(c.Request.Context(), file, scene)
	if err != nil {
		respondProductError(c, err, "error.upload_failed")
		return
	}

	response.Success(c, gin.H{
		"url":      url,
		"filename": file.Filename,
		"size":     file.Size,
	})
}
