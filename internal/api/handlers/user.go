package handlers

import (
	"net/http"

	"fleet-coordinator/internal/services"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService *services.UserService
	validator   *validator.Validate
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
	}
}

// GetUsers returns the users the caller is allowed to see: company-scoped
// for admins, everything for system-wide viewers.
func (h *UserHandler) GetUsers(c *gin.Context) {
	viewer := viewerFromContext(c)

	var (
		users interface{}
		err   error
	)
	if viewer.SeesAllCompanies() {
		users, err = h.userService.GetAllUsers()
	} else {
		users, err = h.userService.GetUsersByCompany(viewer.Company)
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve users", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", users)
}

// GetDrivers lists active drivers within the caller's company scope
func (h *UserHandler) GetDrivers(c *gin.Context) {
	viewer := viewerFromContext(c)

	company := viewer.Company
	if viewer.SeesAllCompanies() {
		company = c.Query("company")
	}

	drivers, err := h.userService.GetActiveDrivers(company)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve drivers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Drivers retrieved successfully", drivers)
}

// GetUser returns a single user by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "User not found", err)
		return
	}

	viewer := viewerFromContext(c)
	if !viewer.SeesAllCompanies() && user.Company != viewer.Company {
		utils.ErrorResponse(c, http.StatusForbidden, "User belongs to another company", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User retrieved successfully", user)
}

// UpdateUser updates profile fields of a user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := h.userService.UpdateUser(id, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update user", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User updated successfully", user)
}

// SetActive activates or deactivates an account
func (h *UserHandler) SetActive(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Active *bool `json:"active" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	user, err := h.userService.SetActive(id, *req.Active)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to change activation", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Activation updated successfully", user)
}

// SetRole changes a user's role
func (h *UserHandler) SetRole(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Role string `json:"role" validate:"required,oneof=DRIVER EMPLOYEE ADMIN SUPER_ADMIN"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := h.userService.SetRole(id, req.Role)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to change role", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Role updated successfully", user)
}

// DeleteUser removes a user account
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if err := h.userService.DeleteUser(id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete user", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User deleted successfully", nil)
}
