package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

const categoryCachePrefix = "cache:categories:"

// CategoryController serves the public category listing and the admin CRUD.
type CategoryController struct {
	db *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// List returns all categories ordered by name. The result is cached because
// the storefront hits it on every page render.
func (c *CategoryController) List(ctx *gin.Context) {
	cacheKey := categoryCachePrefix + "all"
	if raw, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached []models.Category
		if json.Unmarshal(raw, &cached) == nil {
			utils.Success(ctx, "ok", cached)
			return
		}
	}

	var categories []models.Category
	if err := c.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil kategori")
		return
	}

	utils.CacheSetJSON(cacheKey, categories, time.Hour)
	utils.Success(ctx, "ok", categories)
}

// Get returns a single category by slug.
func (c *CategoryController) Get(ctx *gin.Context) {
	var category models.Category
	if err := c.db.Where("slug = ?", ctx.Param("slug")).First(&category).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "kategori tidak ditemukan")
		return
	}
	utils.Success(ctx, "ok", category)
}

// Create adds a category. Admin only.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required,min=2,max=64"`
		Image string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data kategori tidak valid")
		return
	}

	category := models.Category{
		Name:  strings.TrimSpace(req.Name),
		Slug:  utils.Slugify(req.Name),
		Image: strings.TrimSpace(req.Image),
	}
	if category.Slug == "" {
		utils.Error(ctx, http.StatusBadRequest, "nama kategori tidak valid")
		return
	}

	if err := c.db.Create(&category).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, "kategori dengan nama tersebut sudah ada")
		return
	}

	utils.InvalidateByPrefix(categoryCachePrefix)
	utils.Created(ctx, "kategori dibuat", category)
}

// Update modifies a category's name or image. Admin only.
func (c *CategoryController) Update(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "kategori tidak ditemukan")
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Image *string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data kategori tidak valid")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		slug := utils.Slugify(name)
		if slug == "" {
			utils.Error(ctx, http.StatusBadRequest, "nama kategori tidak valid")
			return
		}
		updates["name"] = name
		updates["slug"] = slug
	}
	if req.Image != nil {
		updates["image"] = strings.TrimSpace(*req.Image)
	}
	if len(updates) == 0 {
		utils.Success(ctx, "tidak ada perubahan", category)
		return
	}

	if err := c.db.Model(&category).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, "kategori dengan nama tersebut sudah ada")
		return
	}

	utils.InvalidateByPrefix(categoryCachePrefix)
	utils.Success(ctx, "kategori diperbarui", category)
}

// Delete removes a category and, via the FK constraint, its products. Admin only.
func (c *CategoryController) Delete(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "kategori tidak ditemukan")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		productIDs := tx.Model(&models.Product{}).
			Select("id").Where("category_id = ?", category.ID)
		if err := tx.Where("product_id IN (?)", productIDs).
			Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id IN (?)", productIDs).
			Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", category.ID).
			Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus kategori")
		return
	}

	utils.InvalidateByPrefix(categoryCachePrefix)
	utils.InvalidateByPrefix(productCachePrefix)
	utils.Success(ctx, "kategori dihapus", nil)
}
