package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lapakgo/lapakgo/config"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

// apiSuite boots the full router against an in-memory database. Redis is
// deliberately left uninitialized: every Redis-backed helper degrades to its
// in-memory or no-op fallback.
type apiSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    config.AppConfig
	tokens *utils.TokenManager
	router *gin.Engine
}

func (s *apiSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(
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
	))

	s.db = db
	s.cfg = config.AppConfig{
		AccessTokenSecret:     "test-access-secret",
		RefreshTokenSecret:    "test-refresh-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
		AllowedOrigins:        []string{"*"},
		RateLimitPerMinute:    100000,
		GinMode:               gin.TestMode,
		GinPath:               filepath.Join(s.T().TempDir(), "gin.log"),
		LogLevel:              "error",
		AdminUsernames:        []string{"admin"},
		UploadDir:             s.T().TempDir(),
	}
	s.tokens = utils.NewTokenManager(
		s.cfg.AccessTokenSecret,
		s.cfg.RefreshTokenSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	s.router = SetupRouter(db, s.tokens, s.cfg)

	// The in-process cache outlives the per-test database.
	utils.InvalidateByPrefix("cache:")
}

type requestOpt func(*http.Request)

func withBearer(token string) requestOpt {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(name, value string) requestOpt {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func (s *apiSuite) request(method, path string, body interface{}, opts ...requestOpt) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func (s *apiSuite) data(w *httptest.ResponseRecorder) map[string]interface{} {
	data, _ := s.decode(w)["data"].(map[string]interface{})
	return data
}

// account is a registered test user together with its fresh tokens.
type account struct {
	ID      uint
	Access  string
	Refresh string
}

func (s *apiSuite) register(username, email, password string) account {
	w := s.request(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())

	data := s.data(w)
	user, _ := data["user"].(map[string]interface{})
	s.Require().NotNil(user)

	acc := account{
		ID:     uint(user["id"].(float64)),
		Access: data["access_token"].(string),
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			acc.Refresh = c.Value
		}
	}
	s.Require().NotEmpty(acc.Access)
	s.Require().NotEmpty(acc.Refresh)
	return acc
}
