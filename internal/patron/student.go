package patron

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("student not found")

// Status tracks a student's standing with the school. Only active students
// may borrow.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusGraduated Status = "graduated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusGraduated:
		return true
	}

	return false
}

// Student is a library patron. Deletion is logical (DeletedAt) so loan
// history survives; default queries exclude deleted rows.
type Student struct {
	ID          uuid.UUID
	StudentCode string
	FirstName   string
	LastName    string
	GradeLevel  string
	Section     string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
