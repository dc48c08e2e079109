package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

// VariantController handles the admin sub-CRUD for product variants.
type VariantController struct {
	db *gorm.DB
}

func NewVariantController(db *gorm.DB) *VariantController {
	return &VariantController{db: db}
}

type variantPayload struct {
	Name  string `json:"name" binding:"required,min=1,max=64"`
	Price int64  `json:"price" binding:"min=0"`
	Stock int    `json:"stock" binding:"min=0"`
}

// Create adds a variant to an existing product.
func (v *VariantController) Create(ctx *gin.Context) {
	var product models.Product
	if err := v.db.First(&product, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "produk tidak ditemukan")
		return
	}

	var req variantPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data varian tidak valid")
		return
	}

	price := req.Price
	if price == 0 {
		price = product.Price
	}
	variant := models.ProductVariant{
		ProductID: product.ID,
		Name:      strings.TrimSpace(req.Name),
		Price:     price,
		Stock:     req.Stock,
	}
	if err := v.db.Create(&variant).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat varian")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Created(ctx, "varian dibuat", variant)
}

// Update modifies a variant.
func (v *VariantController) Update(ctx *gin.Context) {
	var variant models.ProductVariant
	if err := v.db.First(&variant, ctx.Param("variantId")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "varian tidak ditemukan")
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Price *int64  `json:"price"`
		Stock *int    `json:"stock"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data varian tidak valid")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if len(updates) == 0 {
		utils.Success(ctx, "tidak ada perubahan", variant)
		return
	}

	if err := v.db.Model(&variant).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui varian")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Success(ctx, "varian diperbarui", variant)
}

// Delete removes a variant.
func (v *VariantController) Delete(ctx *gin.Context) {
	var variant models.ProductVariant
	if err := v.db.First(&variant, ctx.Param("variantId")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "varian tidak ditemukan")
		return
	}

	if err := v.db.Delete(&variant).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus varian")
		return
	}

	utils.InvalidateByPrefix(productCachePrefix)
	utils.Success(ctx, "varian dihapus", nil)
}
