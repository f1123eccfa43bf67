package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fintrack/internal/config"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeReset   = "reset"

	resetTokenExpiry = 15 * time.Minute
)

// Claims represents the claims in the JWTs issued by the provider.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// jwtProvider implements Provider with HS256 JWTs and bcrypt password hashes
// stored alongside the user records.
type jwtProvider struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewJWTProvider creates a Provider backed by signed JWTs.
func NewJWTProvider(db *gorm.DB, cfg *config.Config) Provider {
	return &jwtProvider{db: db, cfg: cfg}
}

// SignUp registers a new user with a bcrypt-hashed password.
func (p *jwtProvider) SignUp(email, password, fullname string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	p.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:    strings.ToLower(email),
		Password: string(hashed),
		Fullname: fullname,
		IsActive: true,
	}
	if err := p.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// SignIn verifies the credentials and issues an access/refresh token pair.
func (p *jwtProvider) SignIn(email, password string) (*Session, error) {
	user, err := p.userByEmail(email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	session, refreshToken, err := p.issueSession(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"refresh_token_hash": hashToken(refreshToken),
		"last_login_at":      &now,
	}
	if err := p.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return session, nil
}

// SignOut invalidates the stored refresh token for the token's user.
func (p *jwtProvider) SignOut(accessToken string) error {
	claims, err := p.parseToken(accessToken, tokenTypeAccess)
	if err != nil {
		return err
	}
	if err := p.db.Model(&models.User{}).Where("id = ?", claims.UserID).
		Update("refresh_token_hash", "").Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RefreshSession validates a refresh token against the stored hash and
// rotates the session.
func (p *jwtProvider) RefreshSession(refreshToken string) (*Session, error) {
	claims, err := p.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != hashToken(refreshToken) {
		return nil, apperrors.ErrInvalidToken
	}

	session, newRefresh, err := p.issueSession(&user)
	if err != nil {
		return nil, err
	}
	if err := p.db.Model(&user).Update("refresh_token_hash", hashToken(newRefresh)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return session, nil
}

// ResetPassword issues a short-lived single-purpose reset token for the user.
func (p *jwtProvider) ResetPassword(email string) (string, error) {
	user, err := p.userByEmail(email)
	if err != nil {
		return "", err
	}
	return p.signToken(user, tokenTypeReset, resetTokenExpiry)
}

// UpdatePassword replaces the user's password hash.
func (p *jwtProvider) UpdatePassword(userID, newPassword string) error {
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := p.db.Model(&models.User{}).Where("id = ?", userID).Update("password", string(hashed))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordWithToken redeems a reset token and replaces the password.
func (p *jwtProvider) UpdatePasswordWithToken(resetToken, newPassword string) error {
	claims, err := p.parseToken(resetToken, tokenTypeReset)
	if err != nil {
		return err
	}
	return p.UpdatePassword(claims.UserID, newPassword)
}

// UserFromToken resolves the user behind a bearer access token.
func (p *jwtProvider) UserFromToken(accessToken string) (*models.User, error) {
	claims, err := p.parseToken(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (p *jwtProvider) userByEmail(email string) (*models.User, error) {
	var user models.User
	if err := p.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (p *jwtProvider) issueSession(user *models.User) (*Session, string, error) {
	access, err := p.signToken(user, tokenTypeAccess, p.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := p.signToken(user, tokenTypeRefresh, p.cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expiresAt := time.Now().Add(p.cfg.JWTAccessExpiry)
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.cfg.JWTAccessExpiry.Seconds()),
		ExpiresAt:    expiresAt.Unix(),
		TokenType:    "bearer",
	}, refresh, nil
}

func (p *jwtProvider) signToken(user *models.User, tokenType string, expiry time.Duration) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fintrack-api",
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.cfg.JWTSecret))
}

func (p *jwtProvider) parseToken(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// hashToken returns the SHA-256 hex digest of a token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
