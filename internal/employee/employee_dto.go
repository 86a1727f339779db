package employee

import (
	"encoding/json"
	"time"
)

// EmployeeRequest carries both create and partial-update input. A nil field
// was not supplied by the client.
type EmployeeRequest struct {
	FirstName     *string      `form:"firstName" json:"firstName"`
	LastName      *string      `form:"lastName" json:"lastName"`
	Email         *string      `form:"email" json:"email"`
	Position      *string      `form:"position" json:"position"`
	Department    *string      `form:"department" json:"department"`
	Salary        *json.Number `form:"salary" json:"salary"`
	DateOfJoining *string      `form:"dateOfJoining" json:"dateOfJoining"`
}

type SearchFilter struct {
	Department string `form:"department"`
	Position   string `form:"position"`
}

type EmployeeResponse struct {
	ID                string    `json:"id"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Position          string    `json:"position"`
	Department        string    `json:"department"`
	Salary            float64   `json:"salary"`
	DateOfJoining     time.Time `json:"dateOfJoining"`
	ProfilePicture    *string   `json:"profilePicture"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

const UploadsPath = "/uploads/"

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             e.ID.String(),
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		Position:       e.Position,
		Department:     e.Department,
		Salary:         e.Salary,
		DateOfJoining:  e.DateOfJoining,
		ProfilePicture: e.ProfilePicture,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.ProfilePicture != nil && *e.ProfilePicture != "" {
		resp.ProfilePictureURL = UploadsPath + *e.ProfilePicture
	}
	return resp
}

func mapToListResponse(emps []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, 0, len(emps))
	for _, e := range emps {
		resp = append(resp, mapToResponse(e))
	}
	return resp
}
