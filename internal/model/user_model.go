package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string      `gorm:"type:varchar(100)" json:"name"`
	Email      string      `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Password   string      `gorm:"type:varchar(255)" json:"-"`
	GoogleID   *string     `gorm:"type:varchar(64);uniqueIndex" json:"google_id,omitempty"`
	Picture    string      `gorm:"type:text" json:"picture,omitempty"`
	Interviews []Interview `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"interviews,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (u *User) TableName() string {
	return "users"
}
