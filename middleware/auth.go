package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hearthworks/hearth-be/models"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
	CtxNFTHolder = "nft_holder"
)

// Stable machine-readable codes for every way the gate can reject a request.
const (
	CodeMissingToken     = "missing_token"
	CodeTokenInvalid     = "token_invalid"
	CodeTokenExpired     = "token_expired"
	CodeWrongTokenType   = "wrong_token_type"
	CodeInsufficientRole = "insufficient_role"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

type Claims struct {
	UserID        uint            `json:"user_id"`
	Email         string          `json:"email"`
	Role          models.UserRole `json:"role"`
	NFTHolder     bool            `json:"nft_holder"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	TokenType     TokenType       `json:"token_type"`
	jwt.RegisteredClaims
}

// Verifier holds the settings needed to validate tokens. Constructed once in
// main and shared by the route groups.
type Verifier struct {
	Secret   []byte
	Issuer   string
	Audience string
}

func NewVerifier(secret []byte, issuer, audience string) *Verifier {
	return &Verifier{Secret: secret, Issuer: issuer, Audience: audience}
}

// Parse validates signature, expiry, issuer and audience, halting on the
// first failure.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.Issuer),
		jwt.WithAudience(v.Audience),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireAuth extracts and verifies the bearer token, then exposes the
// caller's identity on the gin context. Authentication failures are always
// 401; authorization is RequireRoles' job.
func (v *Verifier) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, CodeMissingToken, "authorization token required")
			return
		}

		claims, err := v.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			code := CodeTokenInvalid
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = CodeTokenExpired
			}
			abort(c, http.StatusUnauthorized, code, "invalid token")
			return
		}

		if claims.TokenType != TokenAccess {
			abort(c, http.StatusUnauthorized, CodeWrongTokenType, "access token required")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxNFTHolder, claims.NFTHolder)
		c.Next()
	}
}

// RequireRoles admits only callers whose resolved role is in the allowed set.
// Must run after RequireAuth.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, exists := c.Get(CtxUserRole)
		if !exists || !allowed[role.(models.UserRole)] {
			abort(c, http.StatusForbidden, CodeInsufficientRole, "access denied")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
	c.Abort()
}

// UserID reads the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(CtxUserID)
	uid, _ := id.(uint)
	return uid
}

// Role reads the authenticated role set by RequireAuth.
func Role(c *gin.Context) models.UserRole {
	r, _ := c.Get(CtxUserRole)
	role, _ := r.(models.UserRole)
	return role
}
