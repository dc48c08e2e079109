package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

const productCachePrefix = "cache:products:"

// ProductController serves the public catalog and the admin product CRUD.
type ProductController struct {
	db *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{db: db}
}

// cachedProductList bundles a listing page with its pagination so one cache
// entry can serve the whole response.
type cachedProductList struct {
	Products   []models.Product  `json:"products"`
	Pagination *utils.Pagination `json:"pagination"`
}

// List returns a paginated product listing, optionally filtered by category
// slug and a case-insensitive name search.
func (p *ProductController) List(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	slugFilter := strings.TrimSpace(ctx.Query("category"))
	search := strings.TrimSpace(ctx.Query("q"))

	cacheKey := fmt.Sprintf("%slist:%d:%d:%s:%s", productCachePrefix,
		page, limit, slugFilter, search)
	if raw, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached cachedProductList
		if json.Unmarshal(raw, &cached) == nil {
			utils.Paginated(ctx, "ok", cached.Products, cached.Pagination)
			return
		}
	}

	query := p.db.Model(&models.Product{}).Preload("Category")

	if slugFilter != "" {
		var category models.Category
		if err := p.db.Where("slug = ?", slugFilter).First(&category).Error; err != nil {
			utils.Error(ctx, http.StatusNotFound, "kategori tidak ditemukan")
			return
		}
		query = query.Where("category_id = ?", category.ID)
	}

	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil produk")
		return
	}

	var products []models.Product
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil produk")
		return
	}

	pagination := utils.NewPagination(page, limit, total)
	utils.CacheSetJSON(cacheKey, cachedProductList{Products: products, Pagination: pagination}, time.Hour)
	utils.Paginated(ctx, "ok", products, pagination)
}

// Get returns a single product with its variants, addressed either by
// numeric id or slug.
func (p *ProductController) Get(ctx *gin.Context) {
	key := ctx.Param("slug")
	query := p.db.Preload("Category").Preload("Variants")
	if id, err := strconv.Atoi(key); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", key)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ditemukan")
		return
	}
	utils.Success(ctx, "ok", product)
}

type productPayload struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required,min=2,max=128"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required,min=0"`
	Image       string `json:"image"`
	Variants    []struct {
		Name  string `json:"name" binding:"required,min=1,max=64"`
		Price int64  `json:"price" binding:"min=0"`
		Stock int    `json:"stock" binding:"min=0"`
	} `json:"variants"`
}

// Create adds a product with its variants in one transaction. Admin only.
func (p *ProductController) Create(ctx *gin.Context) {
	var req productPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data produk tidak valid")
		return
	}

	var category models.Category
	if err := p.db.First(&category, req.CategoryID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "kategori tidak ditemukan")
		return
	}

	product := models.Product{
		CategoryID:  category.ID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        utils.Slugify(req.Name),
		Description: utils.Sanitize(req.Description),
		Price:       req.Price,
		Image:       strings.TrimSpace(req.Image),
	}
	for _, v := range req.Variants {
		price := v.Price
		if price == 0 {
			price = req.Price
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:  strings.TrimSpace(v.Name),
			Price: price,
			Stock: v.Stock,
		})
	}

	if err := p.db.Create(&product).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, "produk dengan nama tersebut sudah ada")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Created(ctx, "produk dibuat", product)
}

// Update replaces a product's fields and, when provided, its variant set.
// Admin only.
func (p *ProductController) Update(ctx *gin.Context) {
	var product models.Product
	if err := p.db.Preload("Variants").First(&product, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ditemukan")
		return
	}

	var req struct {
		CategoryID  *uint   `json:"category_id"`
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *int64  `json:"price"`
		Image       *string `json:"image"`
		Variants    *[]struct {
			Name  string `json:"name" binding:"required,min=1,max=64"`
			Price int64  `json:"price" binding:"min=0"`
			Stock int    `json:"stock" binding:"min=0"`
		} `json:"variants"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data produk tidak valid")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.CategoryID != nil {
			var category models.Category
			if err := tx.First(&category, *req.CategoryID).Error; err != nil {
				return err
			}
			updates["category_id"] = category.ID
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			updates["name"] = name
			updates["slug"] = utils.Slugify(name)
		}
		if req.Description != nil {
			updates["description"] = utils.Sanitize(*req.Description)
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Image != nil {
			updates["image"] = strings.TrimSpace(*req.Image)
		}
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Variants != nil {
			if err := tx.Where("product_id = ?", product.ID).
				Delete(&models.ProductVariant{}).Error; err != nil {
				return err
			}
			variants := make([]models.ProductVariant, 0, len(*req.Variants))
			for _, v := range *req.Variants {
				variants = append(variants, models.ProductVariant{
					ProductID: product.ID,
					Name:      strings.TrimSpace(v.Name),
					Price:     v.Price,
					Stock:     v.Stock,
				})
			}
			if len(variants) > 0 {
				if err := tx.Create(&variants).Error; err != nil {
					return err
				}
			}
			product.Variants = variants
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui produk")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Success(ctx, "produk diperbarui", product)
}

// Delete removes a product with its variants. Admin only.
func (p *ProductController) Delete(ctx *gin.Context) {
	var product models.Product
	if err := p.db.First(&product, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ditemukan")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).
			Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).
			Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus produk")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Success(ctx, "produk dihapus", nil)
}
