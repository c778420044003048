package models

import "time"

// Student is a learner whose written solutions are scored.
type Student struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Email       string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	SchoolClass string       `gorm:"size:32;index" json:"school_class,omitempty"`
	Submissions []Submission `gorm:"foreignKey:StudentID" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
