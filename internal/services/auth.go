package services

import (
	"errors"

	"fleet-coordinator/internal/config"
	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo *repository.UserRepository
	jwtUtil  *jwt.JWTUtil
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwtUtil:  jwt.NewJWTUtil(),
		cfg:      cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// Bootstrap administrators keep full access even when their stored
	// profile says otherwise, so an operator can never lock themselves out.
	authUser := s.profileFor(user)
	if !authUser.IsActive {
		return nil, errors.New("account is not active")
	}

	token, err := s.jwtUtil.GenerateToken(authUser.ID, authUser.Email, authUser.Role, authUser.Company)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		User:  authUser,
		Token: token,
	}, nil
}

func (s *AuthService) RefreshToken(userID string) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", errors.New("user not found")
	}

	authUser := s.profileFor(user)
	if !authUser.IsActive {
		return "", errors.New("account is not active")
	}

	token, err := s.jwtUtil.GenerateToken(authUser.ID, authUser.Email, authUser.Role, authUser.Company)
	if err != nil {
		return "", errors.New("failed to generate token")
	}

	return token, nil
}

func (s *AuthService) RefreshTokenFromString(tokenString string) (string, error) {
	newToken, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", errors.New("failed to refresh token")
	}

	return newToken, nil
}

func (s *AuthService) GetUserProfile(userID string) (*models.AuthUser, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	authUser := s.profileFor(user)
	if !authUser.IsActive {
		return nil, errors.New("account is not active")
	}

	return authUser, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.AuthUser, error) {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	authUser := s.profileFor(user)
	if !authUser.IsActive {
		return nil, errors.New("account is not active")
	}

	return authUser, nil
}

// profileFor maps a stored user to the profile the API exposes.
// Allow-listed bootstrap administrators are promoted to SUPER_ADMIN with
// system-wide company scope and forced active.
func (s *AuthService) profileFor(user *models.User) *models.AuthUser {
	authUser := &models.AuthUser{
		ID:          user.ID.Hex(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Company:     user.Company,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
	}

	if s.cfg != nil && s.cfg.IsBootstrapAdmin(user.Email) {
		authUser.Role = models.RoleSuperAdmin
		authUser.Company = models.SystemCompany
		authUser.IsActive = true
	}

	return authUser
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
