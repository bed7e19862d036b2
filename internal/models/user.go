package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleDriver     = "DRIVER"
	RoleEmployee   = "EMPLOYEE"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// SystemCompany is the company value carried by the synthesized
// bootstrap-administrator profile; a viewer scoped to it sees all companies.
const SystemCompany = "System"

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email" validate:"required,email"`
	DisplayName string             `bson:"display_name" json:"displayName" validate:"required,min=1,max=100"`
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role" validate:"required,oneof=DRIVER EMPLOYEE ADMIN SUPER_ADMIN"`
	Company     string             `bson:"company" json:"company" validate:"required"`
	Phone       string             `bson:"phone" json:"phone"`
	FCMToken    string             `bson:"fcm_token,omitempty" json:"fcmToken,omitempty"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	IsActive    bool   `json:"isActive"`
}
