package domain

import "time"

// Application is an applicant record reviewed by the admin pages.
type Application struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	GPA        float64   `json:"gpa"`
	Background string    `json:"background"`
	CreatedAt  time.Time `json:"createdAt"`
}
