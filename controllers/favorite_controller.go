package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/middleware"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

// FavoriteController manages a user's saved products.
type FavoriteController struct {
	db *gorm.DB
}

func NewFavoriteController(db *gorm.DB) *FavoriteController {
	return &FavoriteController{db: db}
}

// List returns the caller's favorites with the product embedded, newest first.
func (f *FavoriteController) List(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	page, limit := parsePagination(ctx)

	var total int64
	if err := f.db.Model(&models.Favorite{}).
		Where("user_id = ?", auth.UserID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil favorit")
		return
	}

	var favorites []models.Favorite
	if err := f.db.Preload("Product").Preload("Product.Category").
		Where("user_id = ?", auth.UserID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&favorites).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil favorit")
		return
	}

	utils.Paginated(ctx, "ok", favorites, utils.NewPagination(page, limit, total))
}

// Add marks a product as favorite. Adding twice is a no-op thanks to the
// unique (user_id, product_id) index.
func (f *FavoriteController) Add(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data tidak valid")
		return
	}

	var product models.Product
	if err := f.db.First(&product, req.ProductID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ditemukan")
		return
	}

	var existing int64
	if err := f.db.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", auth.UserID, product.ID).
		Count(&existing).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menyimpan favorit")
		return
	}
	if existing > 0 {
		utils.Error(ctx, http.StatusConflict, "produk sudah ada di favorit")
		return
	}

	favorite := models.Favorite{UserID: auth.UserID, ProductID: product.ID}
	if err := f.db.Create(&favorite).Error; err != nil {
		// The unique pair index catches the toggle race.
		utils.Error(ctx, http.StatusConflict, "produk sudah ada di favorit")
		return
	}

	utils.Created(ctx, "ditambahkan ke favorit", favorite)
}

// Remove deletes a favorite by product id.
func (f *FavoriteController) Remove(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	res := f.db.Where("user_id = ? AND product_id = ?", auth.UserID, ctx.Param("productId")).
		Delete(&models.Favorite{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus favorit")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ada di favorit")
		return
	}

	utils.Success(ctx, "dihapus dari favorit", nil)
}
