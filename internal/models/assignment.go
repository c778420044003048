package models

import "time"

// Assignment is a task students answer with a written solution.
type Assignment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Subject        string     `gorm:"size:64;not null;default:mathematics" json:"subject"`
	ExpectedAnswer string     `gorm:"type:text" json:"expected_answer"`
	DueDate        *time.Time `json:"due_date"`
	Topic          string     `gorm:"size:64;index" json:"topic"`
	Difficulty     int        `gorm:"not null;default:3" json:"difficulty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Submissions    []Submission
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	return reference.After(*a.DueDate)
}
