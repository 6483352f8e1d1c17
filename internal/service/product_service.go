package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ProductService 商品业务服务
type ProductService struct {
	repo   repository.ProductRepository
	images *ImageService
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, images *ImageService) *ProductService {
	return &ProductService{repo: repo, images: images}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	Slug               string
	Name               string
	Category           string
	Description        string
	PricePerVial       models.Money
	PricePerBox        models.Money
	VialsPerBox        int
	Image              string
	SpecificationsJSON map[string]interface{}
	IsActive           *bool
	SortOrder          int
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(category, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   strings.TrimSpace(category),
		Search:     strings.TrimSpace(search),
		OnlyActive: true,
	})
}

// GetPublicBySlug 获取上架商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(category, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
	})
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	count, err := s.repo.CountBySlug(input.Slug, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}
	imageURL, err := s.resolveImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := models.Product{
		Slug:               input.Slug,
		Name:               input.Name,
		Category:           input.Category,
		Description:        input.Description,
		PricePerVial:       input.PricePerVial,
		PricePerBox:        input.PricePerBox,
		VialsPerBox:        input.VialsPerBox,
		ImageURL:           imageURL,
		SpecificationsJSON: models.JSON(input.SpecificationsJSON),
		IsActive:           isActive,
		SortOrder:          input.SortOrder,
	}
	if err := s.repo.Create(&product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	return &product, nil
}

// Update 更新商品；图片为空时保留原图
func (s *ProductService) Update(ctx context.Context, id uint, input CreateProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	count, err := s.repo.CountBySlug(input.Slug, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}
	if strings.TrimSpace(input.Image) != "" {
		imageURL, err := s.resolveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL = imageURL
	}

	product.Slug = input.Slug
	product.Name = input.Name
	product.Category = input.Category
	product.Description = input.Description
	product.PricePerVial = input.PricePerVial
	product.PricePerBox = input.PricePerBox
	product.VialsPerBox = input.VialsPerBox
	product.SortOrder = input.SortOrder
	if input.SpecificationsJSON != nil {
		product.SpecificationsJSON = models.JSON(input.SpecificationsJSON)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.repo.Delete(id)
}

func (s *ProductService) resolveImage(ctx context.Context, raw string) (string, error) {
	if s.images == nil {
		if strings.TrimSpace(raw) == "" {
			return "", nil
		}
		return "", ErrImageInvalid
	}
	return s.images.Resolve(ctx, raw, "product")
}

func validateProductInput(input *CreateProductInput) error {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" || !slugPattern.MatchString(input.Slug) {
		return ErrInvalidArgument
	}
	if !input.PricePerVial.IsPositive() {
		return ErrProductPriceInvalid
	}
	if input.VialsPerBox <= 0 {
		input.VialsPerBox = 10
	}
	// 未填整盒价时按单支价乘每盒支数
	if input.PricePerBox.IsZero() {
		input.PricePerBox = input.PricePerVial.MulInt(input.VialsPerBox)
	}
	if input.PricePerBox.IsNegative() {
		return ErrProductPriceInvalid
	}
	return nil
}
