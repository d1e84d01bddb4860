package repository

import (
	"time"

	"github.com/gfconnector/billing-console/internal/model"
)

type UserEntity struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `gorm:"column:username;size:50;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;size:16;not null;default:USER"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m model.User) *UserEntity {
	return &UserEntity{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) model.User {
	return model.User{
		ID:           e.ID,
		Username:     e.Username,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Role:         e.Role,
		CreatedAt:    e.CreatedAt,
	}
}
