package routes

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/lapakgo/lapakgo/middleware"
	"github.com/lapakgo/lapakgo/models"
)

type AuthSuite struct {
	apiSuite
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) TestRegisterIssuesWorkingTokens() {
	acc := s.register("budi", "budi@example.com", "rahasia123")

	claims, err := s.tokens.ParseAccessToken(acc.Access)
	s.Require().NoError(err)
	s.Equal(acc.ID, claims.UserID)
	s.Equal("budi", claims.Username)
	s.Equal("budi@example.com", claims.Email)
	s.False(claims.IsAdmin)

	w := s.request(http.MethodGet, "/api/v1/auth/me", nil, withBearer(acc.Access))
	s.Equal(http.StatusOK, w.Code)
}

func (s *AuthSuite) TestRegisterBootstrapsConfiguredAdmin() {
	acc := s.register("admin", "admin@example.com", "rahasia123")

	claims, err := s.tokens.ParseAccessToken(acc.Access)
	s.Require().NoError(err)
	s.True(claims.IsAdmin)
}

func (s *AuthSuite) TestRegisterDuplicateUsernameConflicts() {
	s.register("dila", "dila@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "dila",
		"email":    "lain@example.com",
		"password": "rahasia123",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *AuthSuite) TestLoginClaimsMatchAccount() {
	acc := s.register("siti", "siti@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "siti",
		"password": "rahasia123",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	claims, err := s.tokens.ParseAccessToken(s.data(w)["access_token"].(string))
	s.Require().NoError(err)
	s.Equal(acc.ID, claims.UserID)
	s.Equal("siti", claims.Username)
	s.Equal("siti@example.com", claims.Email)
}

func (s *AuthSuite) TestLoginFailuresShareOneMessage() {
	s.register("tono", "tono@example.com", "rahasia123")

	wrongPass := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "tono",
		"password": "salah-total",
	})
	noUser := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "tidak-ada",
		"password": "apapun",
	})

	s.Equal(http.StatusUnauthorized, wrongPass.Code)
	s.Equal(http.StatusUnauthorized, noUser.Code)
	s.Equal(s.decode(wrongPass)["message"], s.decode(noUser)["message"])
}

func (s *AuthSuite) TestRefreshRotatesAndRevokesOldToken() {
	acc := s.register("rina", "rina@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(middleware.RefreshCookieName, acc.Refresh))
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(s.data(w)["access_token"])

	// The old refresh token no longer matches the stored one.
	again := s.request(http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(middleware.RefreshCookieName, acc.Refresh))
	s.Equal(http.StatusUnauthorized, again.Code)
	s.Equal(middleware.GenericAuthMessage, s.decode(again)["message"])
}

func (s *AuthSuite) TestRefreshRejectsAccessSignedToken() {
	acc := s.register("eko", "eko@example.com", "rahasia123")

	// A token signed with the access secret must never pass refresh
	// verification, even for a real user.
	claims, err := s.tokens.ParseAccessToken(acc.Access)
	s.Require().NoError(err)
	forged, err := s.tokens.GenerateAccessToken(claims.Payload())
	s.Require().NoError(err)

	w := s.request(http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(middleware.RefreshCookieName, forged))
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(middleware.GenericAuthMessage, s.decode(w)["message"])
}

func (s *AuthSuite) TestLogoutRevokesBothTokens() {
	acc := s.register("lani", "lani@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/logout", nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, w.Code)

	// Access token is blacklisted until expiry.
	me := s.request(http.MethodGet, "/api/v1/auth/me", nil, withBearer(acc.Access))
	s.Equal(http.StatusUnauthorized, me.Code)

	// Refresh token was cleared from the user row.
	refresh := s.request(http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(middleware.RefreshCookieName, acc.Refresh))
	s.Equal(http.StatusUnauthorized, refresh.Code)

	var user models.User
	s.Require().NoError(s.db.First(&user, acc.ID).Error)
	s.Nil(user.RefreshToken)
}

func (s *AuthSuite) TestChangePasswordForcesRelogin() {
	acc := s.register("joko", "joko@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"old_password": "rahasia123",
		"new_password": "barusekali456",
	}, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, w.Code)

	refresh := s.request(http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(middleware.RefreshCookieName, acc.Refresh))
	s.Equal(http.StatusUnauthorized, refresh.Code)

	old := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "joko",
		"password": "rahasia123",
	})
	s.Equal(http.StatusUnauthorized, old.Code)

	fresh := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "joko",
		"password": "barusekali456",
	})
	s.Equal(http.StatusOK, fresh.Code)
}

func (s *AuthSuite) TestChangePasswordWrongOldPassword() {
	acc := s.register("wati", "wati@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"old_password": "bukan-itu",
		"new_password": "barusekali456",
	}, withBearer(acc.Access))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthSuite) TestRefreshCookieMintsNewAccessToken() {
	acc := s.register("agus", "agus@example.com", "rahasia123")

	// No bearer at all: the middleware should authenticate from the
	// refresh cookie and hand back a fresh access token in the header.
	w := s.request(http.MethodGet, "/api/v1/auth/me", nil,
		withCookie(middleware.RefreshCookieName, acc.Refresh))
	s.Require().Equal(http.StatusOK, w.Code)

	header := w.Header().Get("Authorization")
	s.Require().NotEmpty(header)
	s.Require().True(len(header) > len("Bearer "))

	claims, err := s.tokens.ParseAccessToken(header[len("Bearer "):])
	s.Require().NoError(err)
	s.Equal(acc.ID, claims.UserID)
}

func (s *AuthSuite) TestProtectedRouteWithoutSession() {
	w := s.request(http.MethodGet, "/api/v1/auth/me", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(middleware.GenericAuthMessage, s.decode(w)["message"])
}
