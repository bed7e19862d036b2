package handlers

import (
	"net/http"

	"fleet-coordinator/internal/services"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CompanyHandler struct {
	companyService *services.CompanyService
	validator      *validator.Validate
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		validator:      validator.New(),
	}
}

// GetCompanies returns all companies, active and inactive
func (h *CompanyHandler) GetCompanies(c *gin.Context) {
	companies, err := h.companyService.GetAllCompanies()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve companies", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Companies retrieved successfully", companies)
}

// GetActiveCompanies returns companies open for assignment
func (h *CompanyHandler) GetActiveCompanies(c *gin.Context) {
	companies, err := h.companyService.GetActiveCompanies()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve companies", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Companies retrieved successfully", companies)
}

// GetCompany returns a single company by ID
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id := c.Param("id")

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Company not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Company retrieved successfully", company)
}

// CreateCompany registers a new company
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req services.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	company, err := h.companyService.CreateCompany(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create company", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Company created successfully", company)
}

// UpdateCompany updates a company's profile
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	company, err := h.companyService.UpdateCompany(id, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update company", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Company updated successfully", company)
}

// SetActive deactivates or reactivates a company
func (h *CompanyHandler) SetActive(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Active *bool `json:"active" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	company, err := h.companyService.SetActive(id, *req.Active)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to change activation", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Activation updated successfully", company)
}
