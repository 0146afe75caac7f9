package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type UserType string

const (
	UserTypePhotographer UserType = "PHOTOGRAPHER"
	UserTypeClient       UserType = "CLIENT"
	UserTypeEnthusiast   UserType = "ENTHUSIAST"
)

// Valid reports whether t is one of the known user types
func (t UserType) Valid() bool {
	switch t {
	case UserTypePhotographer, UserTypeClient, UserTypeEnthusiast:
		return true
	}
	return false
}

type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Username          string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email             string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	FullName          string     `gorm:"type:varchar(100)" json:"full_name"`
	ProfilePictureURL string     `gorm:"type:varchar(255)" json:"profile_picture_url"`
	Bio               string     `gorm:"type:text" json:"bio"`
	Website           string     `gorm:"type:varchar(255)" json:"website"`
	Gender            string     `gorm:"type:varchar(10)" json:"gender"`
	PhoneNumber       string     `gorm:"type:varchar(20)" json:"phone_number"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Location          string     `gorm:"type:varchar(255)" json:"location"`
	UserType          UserType   `gorm:"type:varchar(12);not null;default:'ENTHUSIAST'" json:"user_type"`
	Role              Role       `gorm:"type:varchar(10);not null;default:'USER'" json:"role"`
	IsVerified        bool       `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
