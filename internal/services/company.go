package services

import (
	"errors"
	"fmt"
	"time"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompanyService struct {
	companyRepo *repository.CompanyRepository
	wsManager   websocket.WebSocketManager
}

func NewCompanyService(companyRepo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
	}
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (s *CompanyService) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	s.wsManager = wsManager
}

type CreateCompanyRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
}

type UpdateCompanyRequest struct {
	Name         string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
}

func (s *CompanyService) CreateCompany(req *CreateCompanyRequest) (*models.Company, error) {
	existing, _ := s.companyRepo.FindByName(req.Name)
	if existing != nil {
		return nil, errors.New("company name already exists")
	}

	company := &models.Company{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	created, err := s.companyRepo.Create(company)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionCreate, created)
	return created, nil
}

func (s *CompanyService) GetAllCompanies() ([]*models.Company, error) {
	return s.companyRepo.FindAll()
}

// GetActiveCompanies lists companies still open for assignment. The filter
// runs in the database, not in the caller.
func (s *CompanyService) GetActiveCompanies() ([]*models.Company, error) {
	return s.companyRepo.FindActive()
}

func (s *CompanyService) GetCompanyByID(id string) (*models.Company, error) {
	return s.companyRepo.FindByID(id)
}

func (s *CompanyService) UpdateCompany(id string, req *UpdateCompanyRequest) (*models.Company, error) {
	company, err := s.companyRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("company not found")
	}

	if req.Name != "" && req.Name != company.Name {
		existing, _ := s.companyRepo.FindByName(req.Name)
		if existing != nil && existing.ID.Hex() != id {
			return nil, errors.New("company name already exists")
		}
		company.Name = req.Name
	}
	if req.ContactEmail != "" {
		company.ContactEmail = req.ContactEmail
	}

	company.UpdatedAt = time.Now()

	updated, err := s.companyRepo.Update(id, company)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated)
	return updated, nil
}

// SetActive deactivates or reactivates a company. Companies are never hard
// deleted; their users, vehicles and trips keep referencing them by name.
func (s *CompanyService) SetActive(id string, active bool) (*models.Company, error) {
	if err := s.companyRepo.SetActive(id, active); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, company)
	return company, nil
}

func (s *CompanyService) publishChange(action string, company *models.Company) {
	if s.wsManager == nil || company == nil {
		return
	}

	event := websocket.ChangeEvent{
		Collection: websocket.CollectionCompanies,
		Action:     action,
		DocumentID: company.ID.Hex(),
		Company:    company.Name,
		Data: map[string]interface{}{
			"name":     company.Name,
			"isActive": company.IsActive,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityLow,
	}

	if err := s.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast company change: %v\n", err)
	}
}
