package employee

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName      string
	LastName       string
	Email          string
	Position       string
	Department     string
	Salary         float64 `gorm:"type:numeric(14,2)"`
	DateOfJoining  time.Time
	ProfilePicture *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
