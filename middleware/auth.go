package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

const (
	// authContextKey stores the typed AuthContext inside the gin context.
	authContextKey = "auth_context"
	// RefreshCookieName is the cookie carrying the refresh token.
	RefreshCookieName = "refresh_token"
	// GenericAuthMessage is returned for every authentication failure so the
	// response never reveals which factor failed.
	GenericAuthMessage = "sesi telah berakhir, silakan masuk kembali"
)

// AuthContext is the typed identity produced by Authenticate. Handlers read
// it through CurrentUser instead of loose context keys.
type AuthContext struct {
	UserID   uint
	Username string
	Email    string
	IsAdmin  bool
}

// CurrentUser returns the authenticated identity attached by Authenticate.
func CurrentUser(ctx *gin.Context) (AuthContext, bool) {
	v, exists := ctx.Get(authContextKey)
	if !exists {
		return AuthContext{}, false
	}
	auth, ok := v.(AuthContext)
	return auth, ok
}

// Authenticate gates a request on a valid session. The bearer access token is
// tried first; when absent or invalid the refresh cookie is verified against
// the token stored on the user row, and on success a fresh access token is
// minted and exposed through the Authorization response header for the client
// to adopt.
func Authenticate(db *gorm.DB, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" && !utils.IsTokenBlacklisted(token) {
			if claims, err := tokens.ParseAccessToken(token); err == nil {
				setAuth(ctx, claims.Payload())
				ctx.Next()
				return
			}
		}

		refresh, err := ctx.Cookie(RefreshCookieName)
		if err != nil || refresh == "" {
			reject(ctx)
			return
		}

		claims, err := tokens.ParseRefreshToken(refresh)
		if err != nil {
			reject(ctx)
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			reject(ctx)
			return
		}
		// A token that no longer matches the stored one was revoked by a
		// newer login, a logout, or a password change.
		if user.RefreshToken == nil || *user.RefreshToken != refresh {
			reject(ctx)
			return
		}

		access, err := tokens.GenerateAccessToken(claims.Payload())
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "gagal membuat token")
			ctx.Abort()
			return
		}
		ctx.Header("Authorization", "Bearer "+access)
		setAuth(ctx, claims.Payload())
		ctx.Next()
	}
}

// AdminRequired gates admin-only routes. Always stacked after Authenticate.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		auth, ok := CurrentUser(ctx)
		if !ok {
			reject(ctx)
			return
		}
		if !auth.IsAdmin {
			utils.Error(ctx, http.StatusForbidden, "akses ditolak, khusus admin")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func setAuth(ctx *gin.Context, p utils.TokenPayload) {
	ctx.Set(authContextKey, AuthContext{
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
		IsAdmin:  p.IsAdmin,
	})
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func reject(ctx *gin.Context) {
	utils.Error(ctx, http.StatusUnauthorized, GenericAuthMessage)
	ctx.Abort()
}
