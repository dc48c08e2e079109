package main

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lapakgo/lapakgo/config"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/routes"
	"github.com/lapakgo/lapakgo/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	utils.InitRedis(cfg)
	utils.InitCaptchaStore()

	db := config.InitDatabase(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Banner{},
		&models.Favorite{},
		&models.ForumPost{},
		&models.ForumReply{},
		&models.ForumLike{},
		&models.PageView{},
	)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		zap.L().Fatal("create upload dir", zap.Error(err))
	}

	tokens := utils.NewTokenManager(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour,
	)

	router := routes.SetupRouter(db, tokens, cfg)

	zap.L().Info("server starting", zap.String("port", cfg.AppPort))
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
