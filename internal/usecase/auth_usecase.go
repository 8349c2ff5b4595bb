package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
)

type AuthUseCase struct {
	userRepo  mongodb.UserRepository
	tokenRepo mongodb.AuthTokenRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthUseCase(userRepo mongodb.UserRepository, tokenRepo mongodb.AuthTokenRepository, cfg config.AuthConfig) *AuthUseCase {
	return &AuthUseCase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSecret: cfg.JWTSecret,
		tokenTTL:  cfg.TokenTTL,
	}
}

// Login finds or creates the user for an email and issues a JWT. The token
// hash is stored so individual sessions can be revoked later.
func (uc *AuthUseCase) Login(ctx context.Context, req models.LoginRequest, userAgent, ipAddress string) (*models.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to get user by email: %w", err)
		}
		user = &models.User{
			Email:       req.Email,
			DisplayName: req.DisplayName,
		}
		if user.DisplayName == "" {
			user.DisplayName = req.Email
		}
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	token, expiresAt, err := uc.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	authToken := &models.AuthToken{
		UserID:    user.ID,
		TokenHash: uc.hashToken(token),
		ExpiresAt: expiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := uc.tokenRepo.Create(ctx, authToken); err != nil {
		return nil, fmt.Errorf("failed to store auth token: %w", err)
	}

	if err := uc.userRepo.UpdatePresence(ctx, user.ID, models.PresenceOnline); err != nil {
		return nil, fmt.Errorf("failed to update presence: %w", err)
	}
	user.Presence = models.PresenceOnline

	return &models.LoginResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken checks the JWT signature, the stored token record and the
// user account, in that order.
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := uc.parseJWT(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	authToken, err := uc.tokenRepo.GetByTokenHash(ctx, uc.hashToken(tokenString))
	if err != nil {
		return nil, fmt.Errorf("token not found: %w", err)
	}
	if authToken.IsRevoked {
		return nil, errors.New("token has been revoked")
	}
	if authToken.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token has expired")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.IsActive {
		return nil, errors.New("user account is deactivated")
	}

	return user, nil
}

// UpdateProfile changes the display name and avatar shown next to the
// user's messages.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID primitive.ObjectID, displayName, avatar string) (*models.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = user.DisplayName
	}
	if avatar == "" {
		avatar = user.Avatar
	}
	if err := uc.userRepo.UpdateProfile(ctx, userID, displayName, avatar); err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	user.Avatar = avatar
	return user, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, tokenString string) error {
	return uc.tokenRepo.RevokeToken(ctx, uc.hashToken(tokenString))
}

func (uc *AuthUseCase) RevokeAllSessions(ctx context.Context, userID primitive.ObjectID) error {
	return uc.tokenRepo.RevokeUserTokens(ctx, userID)
}

func (uc *AuthUseCase) CleanupExpiredTokens(ctx context.Context) error {
	return uc.tokenRepo.DeleteExpiredTokens(ctx)
}

type jwtClaims struct {
	UserID string
	Email  string
}

func (uc *AuthUseCase) generateJWT(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(uc.tokenTTL)

	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(uc.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (uc *AuthUseCase) parseJWT(tokenString string) (*jwtClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(uc.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return nil, errors.New("missing user_id claim")
	}
	return &jwtClaims{UserID: userID, Email: email}, nil
}

func (uc *AuthUseCase) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
