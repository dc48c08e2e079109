package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/config"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

const maxUploadBytes = 10 << 20

// AdminController bundles the back-office endpoints: user listing, stats and
// image upload.
type AdminController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

func NewAdminController(db *gorm.DB, cfg config.AppConfig) *AdminController {
	return &AdminController{db: db, cfg: cfg}
}

// ListUsers returns a paginated user listing for the back office.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, limit := parsePagination(ctx)

	query := a.db.Model(&models.User{})
	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil pengguna")
		return
	}

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil pengguna")
		return
	}

	utils.Paginated(ctx, "ok", users, utils.NewPagination(page, limit, total))
}

// SetAdmin grants or revokes admin on a user.
func (a *AdminController) SetAdmin(ctx *gin.Context) {
	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data tidak valid")
		return
	}

	var user models.User
	if err := a.db.First(&user, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "pengguna tidak ditemukan")
		return
	}

	if err := a.db.Model(&user).Update("is_admin", *req.IsAdmin).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui pengguna")
		return
	}

	utils.Success(ctx, "pengguna diperbarui", user)
}

// Stats returns entity counts plus today's page views per path.
func (a *AdminController) Stats(ctx *gin.Context) {
	counts := map[string]int64{}
	for name, model := range map[string]interface{}{
		"users":       &models.User{},
		"categories":  &models.Category{},
		"products":    &models.Product{},
		"banners":     &models.Banner{},
		"forum_posts": &models.ForumPost{},
	} {
		var n int64
		if err := a.db.Model(model).Count(&n).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil statistik")
			return
		}
		counts[name] = n
	}

	today := time.Now().Format("2006-01-02")
	var views []models.PageView
	if err := a.db.Where("date = ?", today).
		Order("count DESC").Limit(50).
		Find(&views).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil statistik")
		return
	}

	utils.Success(ctx, "ok", gin.H{
		"counts":     counts,
		"page_views": views,
	})
}

// Upload stores an image under a random name and returns its public path.
func (a *AdminController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "file tidak ada")
		return
	}
	if file.Size > maxUploadBytes {
		utils.Error(ctx, http.StatusBadRequest, "ukuran file maksimal 10MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, "jenis file tidak didukung")
		return
	}

	// Date-bucketed directories keep any single directory small.
	day := time.Now().Format("2006/01/02")
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	dst := filepath.Join(a.cfg.UploadDir, filepath.FromSlash(day), name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menyimpan file")
		return
	}
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menyimpan file")
		return
	}

	utils.Created(ctx, "file diunggah", gin.H{"path": "/static/" + day + "/" + name})
}
