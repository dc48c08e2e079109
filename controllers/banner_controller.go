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

const bannerCachePrefix = "cache:banners:"

// BannerController serves the public banner strip and the admin CRUD.
type BannerController struct {
	db *gorm.DB
}

func NewBannerController(db *gorm.DB) *BannerController {
	return &BannerController{db: db}
}

// List returns active banners ordered by sort order.
func (b *BannerController) List(ctx *gin.Context) {
	cacheKey := bannerCachePrefix + "active"
	if raw, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached []models.Banner
		if json.Unmarshal(raw, &cached) == nil {
			utils.Success(ctx, "ok", cached)
			return
		}
	}

	var banners []models.Banner
	if err := b.db.Where("active = ?", true).
		Order("sort_order ASC, id ASC").Find(&banners).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil banner")
		return
	}

	utils.CacheSetJSON(cacheKey, banners, time.Hour)
	utils.Success(ctx, "ok", banners)
}

// ListAll returns every banner, active or not. Admin only.
func (b *BannerController) ListAll(ctx *gin.Context) {
	var banners []models.Banner
	if err := b.db.Order("sort_order ASC, id ASC").Find(&banners).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil banner")
		return
	}
	utils.Success(ctx, "ok", banners)
}

// Create adds a banner. Admin only.
func (b *BannerController) Create(ctx *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required,min=2,max=128"`
		Image     string `json:"image" binding:"required"`
		TargetURL string `json:"target_url"`
		Active    *bool  `json:"active"`
		SortOrder int    `json:"sort_order"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data banner tidak valid")
		return
	}

	banner := models.Banner{
		Title:     strings.TrimSpace(req.Title),
		Image:     strings.TrimSpace(req.Image),
		TargetURL: strings.TrimSpace(req.TargetURL),
		Active:    req.Active == nil || *req.Active,
		SortOrder: req.SortOrder,
	}
	if err := b.db.Create(&banner).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat banner")
		return
	}

	utils.InvalidateByPrefix(bannerCachePrefix)
	utils.Created(ctx, "banner dibuat", banner)
}

// Update modifies a banner. Admin only.
func (b *BannerController) Update(ctx *gin.Context) {
	var banner models.Banner
	if err := b.db.First(&banner, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "banner tidak ditemukan")
		return
	}

	var req struct {
		Title     *string `json:"title"`
		Image     *string `json:"image"`
		TargetURL *string `json:"target_url"`
		Active    *bool   `json:"active"`
		SortOrder *int    `json:"sort_order"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data banner tidak valid")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Image != nil {
		updates["image"] = strings.TrimSpace(*req.Image)
	}
	if req.TargetURL != nil {
		updates["target_url"] = strings.TrimSpace(*req.TargetURL)
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		utils.Success(ctx, "tidak ada perubahan", banner)
		return
	}

	if err := b.db.Model(&banner).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui banner")
		return
	}

	utils.InvalidateByPrefix(bannerCachePrefix)
	utils.Success(ctx, "banner diperbarui", banner)
}

// Delete removes a banner. Admin only.
func (b *BannerController) Delete(ctx *gin.Context) {
	var banner models.Banner
	if err := b.db.First(&banner, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "banner tidak ditemukan")
		return
	}

	if err := b.db.Delete(&banner).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus banner")
		return
	}

	utils.InvalidateByPrefix(bannerCachePrefix)
	utils.Success(ctx, "banner dihapus", nil)
}
