package api

import (
	"crypto"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"silentbid/adapters/oidc"
	"silentbid/models"
)

const accessTokenCookie = "access_token"

// AdminClaims 是簽發給管理員的存取憑證內容
type AdminClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func ParseAndValidateJWT(tokenString string, secret crypto.Signer) (*AdminClaims, error) {
	const op = "ParseJWT"
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret.Public(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%s: token is invalid", op)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok {
		return nil, fmt.Errorf("%s: token claims are invalid", op)
	}
	return claims, nil
}

// requireAdmin 驗證請求夾帶的管理員憑證
// 驗證失敗時直接回應 401 並中止請求
func (impl *ServerImpl) requireAdmin(c *gin.Context) (*AdminClaims, bool) {
	const op = "requireAdmin"
	tokenString, err := c.Cookie(accessTokenCookie)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}
	claims, err := ParseAndValidateJWT(tokenString, impl.config.Auth.PrivateKey)
	if err != nil {
		slog.Error("Fail to parse and validate JWT", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// Obtain authentication url
// (GET /auth/sso/login)
func (impl *ServerImpl) GetAuthSsoLogin(c *gin.Context) {
	const op = "GetAuthLogin"
	redirectUrl := c.Query("redirect_url")
	if redirectUrl == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "redirect_url is required"})
		return
	}
	state, err := generateID("st")
	if err != nil {
		slog.Error("Unable to generate state", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	nonce, err := generateID("n")
	if err != nil {
		slog.Error("Unable to generate nonce", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	// 暫存驗證參數，callback 時用來核對 sso server 的回應
	c.SetCookie("request_state", state, 120, "/", "", true, true)
	c.SetCookie("request_nonce", nonce, 120, "/", "", true, true)
	c.SetCookie("request_redirect_url", redirectUrl, 120, "/", "", true, true)
	// 轉向 sso server 的登入頁面
	c.Redirect(http.StatusFound, impl.oidcProvider.AuthURL(state, nonce, redirectUrl, []string{"email", "openid", "profile"}))
}

// Exchange authorization code
// (GET /auth/sso/callback)
func (impl *ServerImpl) GetAuthSsoCallback(c *gin.Context) {
	const op = "GetAuthCallback"
	// 驗證 callback 的參數和login時儲存在 secure cookie 的參數是否相同
	requestState, _ := c.Cookie("request_state")
	requestNonce, _ := c.Cookie("request_nonce")
	requestRedirectUrl, _ := c.Cookie("request_redirect_url")
	verifier := impl.oidcProvider.NewExchangeVerifier(requestState, requestNonce)
	// 向驗證伺服器交換token
	token, err := impl.oidcProvider.Exchange(c.Request.Context(), verifier, c.Query("code"), c.Query("state"), requestRedirectUrl)
	if errors.Is(err, oidc.ErrStateMismatch) || errors.Is(err, oidc.ErrNonceMismatch) {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("Fail to exchange token", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	// 關聯管理員資料(用於關聯管理員操作)
	// 如果 identity 不存在，會建立新的管理員
	adminIdentity := models.AdminIdentity{Identity: token.IDToken.Sub}
	if result := impl.db.Preload("Admin").Where(&adminIdentity).First(&adminIdentity); result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		slog.Error("Fail to get admin identity", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	} else if result.Error != nil {
		adminIdentity.Admin = &models.Admin{
			Name: token.IDToken.Name,
		}
		if result := impl.db.Create(&adminIdentity); result.Error != nil {
			slog.Error("Fail to create admin identity", slog.String("op", op), slog.Any("error", result.Error))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}
	// 建立token
	adminToken := jwt.NewWithClaims(&jwt.SigningMethodEd25519{}, AdminClaims{
		Name: adminIdentity.Admin.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(impl.config.Auth.ExpireDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    impl.config.Auth.Issuer,
			Subject:   adminIdentity.Admin.ID.String(),
			ID:        uuid.NewString(),
			Audience:  []string{impl.config.Auth.Audience},
		},
	})
	adminTokenString, err := adminToken.SignedString(impl.config.Auth.PrivateKey)
	if err != nil {
		slog.Error("Fail to sign JWT", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.SetCookie(accessTokenCookie, adminTokenString, int(impl.config.Auth.ExpireDuration.Seconds()), "/", "", true, true)
	c.Redirect(http.StatusFound, "/")
}

// Revoke authentication token
// (GET /auth/logout)
func (impl *ServerImpl) GetAuthLogout(c *gin.Context) {
	// only clear the cookie without revoking the token
	c.SetCookie(accessTokenCookie, "", -1, "/", "", true, true)
	c.Status(http.StatusOK)
}

func generateID(prefix string) (string, error) {
	const op = "generateID"
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("[%s] Fail to generate unique id, err=%w", op, err)
	}
	return prefix + "_" + base64.URLEncoding.EncodeToString(bytes), nil
}
