package services

import (
	"errors"
	"fmt"
	"time"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  *repository.UserRepository
	wsManager websocket.WebSocketManager
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (s *UserService) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	s.wsManager = wsManager
}

type RegisterUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=100"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=DRIVER EMPLOYEE ADMIN SUPER_ADMIN"`
	Company     string `json:"company" validate:"required"`
	Phone       string `json:"phone,omitempty"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company,omitempty"`
}

// Register creates a new user profile. The role defaults to EMPLOYEE and
// the account starts inactive until an administrator activates it.
func (s *UserService) Register(req *RegisterUserRequest) (*models.User, error) {
	existingUser, _ := s.userRepo.FindByEmail(req.Email)
	if existingUser != nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = models.RoleEmployee
	}

	user := &models.User{
		ID:          primitive.NewObjectID(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    string(hashedPassword),
		Role:        role,
		Company:     req.Company,
		Phone:       req.Phone,
		IsActive:    false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	created, err := s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionCreate, created)
	return created, nil
}

func (s *UserService) GetAllUsers() ([]*models.User, error) {
	return s.userRepo.FindAll()
}

func (s *UserService) GetUsersByCompany(company string) ([]*models.User, error) {
	return s.userRepo.FindByCompany(company)
}

func (s *UserService) GetUserByID(id string) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

// GetActiveDrivers lists active drivers, scoped to one company unless the
// caller sees all companies.
func (s *UserService) GetActiveDrivers(company string) ([]*models.User, error) {
	return s.userRepo.FindActiveDrivers(company)
}

func (s *UserService) UpdateUser(id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Company != "" {
		user.Company = req.Company
	}

	user.UpdatedAt = time.Now()

	updated, err := s.userRepo.Update(id, user)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated)
	return updated, nil
}

// SetActive flips account activation. Deactivated accounts fail login and
// token validation but keep their documents and history.
func (s *UserService) SetActive(id string, active bool) (*models.User, error) {
	if err := s.userRepo.SetActive(id, active); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, user)
	return user, nil
}

// SetRole changes a user's role. Promotions take effect on the user's next
// issued token.
func (s *UserService) SetRole(id string, role string) (*models.User, error) {
	switch role {
	case models.RoleDriver, models.RoleEmployee, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, errors.New("invalid role")
	}

	if err := s.userRepo.SetRole(id, role); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, user)
	return user, nil
}

// RegisterFCMToken stores the device token used for push delivery. Last
// writer wins when the user signs in on a new device.
func (s *UserService) RegisterFCMToken(id string, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	return s.userRepo.SetFCMToken(id, token)
}

func (s *UserService) ChangePassword(id string, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash new password")
	}

	user.Password = string(hashedPassword)
	user.UpdatedAt = time.Now()

	_, err = s.userRepo.Update(id, user)
	return err
}

func (s *UserService) DeleteUser(id string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return errors.New("user not found")
	}

	if user.Role == models.RoleSuperAdmin {
		return errors.New("cannot delete super admin users")
	}

	if err := s.userRepo.Delete(id); err != nil {
		return err
	}

	s.publishChange(websocket.ActionDelete, user)
	return nil
}

func (s *UserService) publishChange(action string, user *models.User) {
	if s.wsManager == nil || user == nil {
		return
	}

	event := websocket.ChangeEvent{
		Collection: websocket.CollectionUsers,
		Action:     action,
		DocumentID: user.ID.Hex(),
		Company:    user.Company,
		Data: map[string]interface{}{
			"role":     user.Role,
			"isActive": user.IsActive,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityLow,
	}

	if err := s.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast user change: %v\n", err)
	}
}
