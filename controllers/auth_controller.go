package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/config"
	"github.com/lapakgo/lapakgo/middleware"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

// AuthController handles registration, login, token refresh and the
// third-party OAuth providers.
type AuthController struct {
	db     *gorm.DB
	tokens *utils.TokenManager
	cfg    config.AppConfig
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, tokens *utils.TokenManager, cfg config.AppConfig) *AuthController {
	return &AuthController{db: db, tokens: tokens, cfg: cfg}
}

const loginFailedMessage = "username atau password salah"

// Register creates a local account and immediately issues a token pair.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username      string `json:"username" binding:"required,min=3,max=32"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password" binding:"required,min=6,max=72"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data pendaftaran tidak valid")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, "username hanya boleh berisi huruf, angka, '-' dan '_'")
		return
	}

	if a.cfg.RegisterCaptchaEnabled {
		if !utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
			utils.Error(ctx, http.StatusBadRequest, "captcha salah atau kedaluwarsa")
			return
		}
	}

	ip := ctx.ClientIP()
	if !utils.RegistrationCooldownTry(ip, a.cfg.RegisterAttemptCooldownSec) {
		utils.Error(ctx, http.StatusTooManyRequests, "permintaan terlalu sering, coba lagi nanti")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip, a.cfg.RegisterMaxPerIPPerDay) {
		utils.Error(ctx, http.StatusTooManyRequests, "batas pendaftaran harian tercapai")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memeriksa akun")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusConflict, "username atau email sudah terdaftar")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memproses password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      a.isBootstrapAdmin(req.Username),
		RegisterIP:   ip,
	}

	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat akun")
		return
	}
	utils.RegistrationDailyIncrement(ip)

	pair, err := a.issuePair(ctx, &user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
		return
	}

	utils.Created(ctx, "pendaftaran berhasil", gin.H{
		"user":         user,
		"access_token": pair.AccessToken,
	})
}

// Login verifies credentials and issues a new token pair, revoking whatever
// refresh token was stored before.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data login tidak valid")
		return
	}

	// Unknown username and wrong password answer identically so the
	// response never reveals whether an account exists.
	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, loginFailedMessage)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, loginFailedMessage)
		return
	}

	pair, err := a.issuePair(ctx, &user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
		return
	}

	utils.Success(ctx, "login berhasil", gin.H{
		"user":         user,
		"access_token": pair.AccessToken,
	})
}

// Refresh rotates the token pair using the refresh cookie. A token that does
// not match the one stored on the user row was revoked and is rejected.
func (a *AuthController) Refresh(ctx *gin.Context) {
	refresh, err := ctx.Cookie(middleware.RefreshCookieName)
	if err != nil || refresh == "" {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	claims, err := a.tokens.ParseRefreshToken(refresh)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}
	if user.RefreshToken == nil || *user.RefreshToken != refresh {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	pair, err := a.tokens.GeneratePair(utils.TokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
		return
	}

	// Rotate conditionally on the presented token so two concurrent refresh
	// calls cannot both win: the loser matches zero rows and is rejected.
	res := a.db.Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", user.ID, refresh).
		Update("refresh_token", pair.RefreshToken)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	ctx.Header("Authorization", "Bearer "+pair.AccessToken)
	ctx.SetCookie(middleware.RefreshCookieName, pair.RefreshToken,
		int(a.tokens.RefreshTTL().Seconds()), "/", "", false, true)

	utils.Success(ctx, "token diperbarui", gin.H{"access_token": pair.AccessToken})
}

// Logout clears the stored refresh token and blacklists the presented access
// token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	if err := a.db.Model(&models.User{}).Where("id = ?", auth.UserID).
		Update("refresh_token", nil).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal logout")
		return
	}

	authHeader := ctx.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 {
		token := strings.TrimSpace(parts[1])
		if claims, err := a.tokens.ParseAccessToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}

	clearRefreshCookie(ctx)
	utils.Success(ctx, "logout berhasil", nil)
}

// ChangePassword re-hashes the password and clears the refresh token so every
// other session is forced to log in again.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data tidak valid")
		return
	}

	var user models.User
	if err := a.db.First(&user, auth.UserID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "akun tidak ditemukan")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		utils.Error(ctx, http.StatusUnauthorized, "password lama salah")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memproses password")
		return
	}

	if err := a.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hash,
		"refresh_token": nil,
	}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengganti password")
		return
	}

	clearRefreshCookie(ctx)
	utils.Success(ctx, "password diperbarui, silakan login kembali", nil)
}

// Me returns the current authenticated user's record.
func (a *AuthController) Me(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var user models.User
	if err := a.db.First(&user, auth.UserID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "akun tidak ditemukan")
		return
	}

	utils.Success(ctx, "ok", user)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat captcha")
		return
	}
	utils.Success(ctx, "ok", gin.H{"id": id, "image": b64})
}

// issuePair mints a fresh access/refresh couple, persists the refresh token
// on the user row (revoking any prior one) and sets the refresh cookie.
func (a *AuthController) issuePair(ctx *gin.Context, user *models.User) (utils.TokenPair, error) {
	payload := utils.TokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}

	pair, err := a.tokens.GeneratePair(payload)
	if err != nil {
		return utils.TokenPair{}, err
	}

	if err := a.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("refresh_token", pair.RefreshToken).Error; err != nil {
		return utils.TokenPair{}, err
	}
	user.RefreshToken = &pair.RefreshToken

	ctx.Header("Authorization", "Bearer "+pair.AccessToken)
	ctx.SetCookie(middleware.RefreshCookieName, pair.RefreshToken,
		int(a.tokens.RefreshTTL().Seconds()), "/", "", false, true)
	return pair, nil
}

func clearRefreshCookie(ctx *gin.Context) {
	ctx.SetCookie(middleware.RefreshCookieName, "", -1, "/", "", false, true)
}

func (a *AuthController) isBootstrapAdmin(username string) bool {
	for _, u := range a.cfg.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), username) {
			return true
		}
	}
	return false
}

func validUsername(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return len(s) > 0
}

// --- OAuth providers ---

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	conf, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, "ok", gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a user identity and
// issues the same token pair as a local login.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, "code atau state tidak ada")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, "state tidak valid atau kedaluwarsa")
		return
	}

	conf, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	token, err := conf.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "gagal menukar kode otorisasi")
		return
	}

	userInfo, err := a.fetchOAuthUser(provider, token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil profil pengguna")
		return
	}

	user, err := a.findOrCreateOAuthUser(provider, userInfo)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menyimpan akun")
		return
	}

	pair, err := a.issuePair(ctx, user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
		return
	}

	utils.Success(ctx, "login berhasil", gin.H{
		"user":         user,
		"access_token": pair.AccessToken,
	})
}

type oauthUser struct {
	ID        string
	Username  string
	Email     string
	AvatarURL string
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	switch strings.ToLower(provider) {
	case "github":
		if a.cfg.GitHubClientID == "" || a.cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     a.cfg.GitHubClientID,
			ClientSecret: a.cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", a.cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if a.cfg.GoogleClientID == "" || a.cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     a.cfg.GoogleClientID,
			ClientSecret: a.cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", a.cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (a *AuthController) fetchOAuthUser(provider string, token *oauth2.Token) (*oauthUser, error) {
	switch strings.ToLower(provider) {
	case "github":
		return fetchGitHubUser(token)
	case "google":
		return fetchGoogleUser(token)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (a *AuthController) findOrCreateOAuthUser(provider string, data *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", provider, data.ID).First(&user).Error
	if err == nil {
		_ = a.db.Model(&user).Updates(map[string]interface{}{"avatar_url": data.AvatarURL}).Error
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := a.ensureUniqueUsername(data.Username, provider, data.ID)
	email := strings.ToLower(strings.TrimSpace(data.Email))
	if email == "" {
		email = fmt.Sprintf("%s-%s@oauth.local", provider, data.ID)
	}
	user = models.User{
		Username:   username,
		Email:      email,
		Provider:   provider,
		ProviderID: data.ID,
		AvatarURL:  data.AvatarURL,
		IsAdmin:    a.isBootstrapAdmin(username),
		RegisterIP: "oauth",
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthController) ensureUniqueUsername(base, provider, id string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, id))
		if base == "" {
			base = fmt.Sprintf("user_%s", id)
		}
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

func fetchGitHubUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &oauthUser{
		ID:        fmt.Sprintf("%d", payload.ID),
		Username:  payload.Login,
		Email:     payload.Email,
		AvatarURL: payload.AvatarURL,
	}, nil
}

func fetchGoogleUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &oauthUser{
		ID:        payload.ID,
		Username:  payload.Email,
		Email:     payload.Email,
		AvatarURL: payload.Picture,
	}, nil
}
