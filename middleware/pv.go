package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lapakgo/lapakgo/models"
)

// PageViewRecorder records daily view counts per path for public catalog and
// forum pages, feeding the admin stats endpoint.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		// Only storefront content endpoints; admin, auth and infra paths
		// would skew the counters.
		if !strings.HasPrefix(path, "/api/v1/") ||
			strings.HasPrefix(path, "/api/v1/admin") ||
			strings.HasPrefix(path, "/api/v1/auth") {
			return
		}

		// Local midnight aligns with the DATE column.
		now := time.Now().In(time.Local)
		localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert avoids duplicate key errors under concurrency.
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PageView{Date: localMidnight, Path: path, Count: 1}).Error
	}
}
