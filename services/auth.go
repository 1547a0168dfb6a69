package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

type AuthService struct {
	db              *gorm.DB
	verifier        *middleware.Verifier
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewAuthService(db *gorm.DB, verifier *middleware.Verifier, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		verifier:        verifier,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

// TokenPair is what login, register and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *AuthService) generateToken(user *models.User, tokenType middleware.TokenType, ttl time.Duration) (string, error) {
	claims := middleware.Claims{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		NFTHolder:     user.NFTHolder,
		WalletAddress: user.WalletAddress,
		TokenType:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.verifier.Issuer,
			Audience:  jwt.ClaimStrings{s.verifier.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.verifier.Secret)
}

// IssueTokens returns a short-lived access token and a long-lived refresh
// token for the user.
func (s *AuthService) IssueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.generateToken(user, middleware.TokenAccess, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, middleware.TokenRefresh, s.refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !s.CheckPassword(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.IssueTokens(&user)
	if err != nil {
		return nil, nil, err
	}

	return &user, tokens, nil
}

func (s *AuthService) Register(email, password, name, phone string) (*models.User, *TokenPair, error) {
	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, nil, ErrEmailTaken
	}

	user, err := s.CreateUser(email, password, name, models.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	if phone != "" {
		user.Phone = phone
		if err := s.db.Model(user).Update("phone", phone).Error; err != nil {
			return nil, nil, err
		}
	}

	tokens, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair. Claims are
// re-resolved from the database so role or NFT changes take effect on the
// next refresh.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.verifier.Parse(refreshToken)
	if err != nil || claims.TokenType != middleware.TokenRefresh {
		return nil, ErrInvalidRefresh
	}

	var user models.User
	if err := s.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		return nil, ErrInvalidRefresh
	}

	return s.IssueTokens(&user)
}

func (s *AuthService) CreateUser(email, password, name string, role models.UserRole) (*models.User, error) {
	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Password: hashedPassword,
		Name:     name,
		Role:     role,
		IsActive: true,
	}

	if err := s.db.Create(&user).Error; err != nil {
		// Two registrations racing past the pre-check land here; the unique
		// index on email decides the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}
