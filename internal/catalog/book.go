package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("book not found")
	// ErrCopiesExceeded rejects catalog edits that would leave more copies on
	// loan than the title owns.
	ErrCopiesExceeded = errors.New("copies available cannot exceed copies total")
)

// Condition grades the physical state of a title's copies.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}

	return false
}

// Status marks whether a title circulates at all, independent of how many
// copies happen to be on loan.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Book is a catalog entry for one title. CopiesAvailable moves only inside
// circulation transactions: down one per borrow, up one per return.
type Book struct {
	ID              uuid.UUID
	AccessionNumber string
	Title           string
	Author          string
	CategoryID      *uuid.UUID
	CopiesTotal     int
	CopiesAvailable int
	Condition       Condition
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Category groups catalog entries for browsing and reports.
type Category struct {
	ID   uuid.UUID
	Name string
}
