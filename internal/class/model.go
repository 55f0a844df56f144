package class

import (
	"time"

	"classbook/internal/timezone"
)

type FitnessClass struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Instructor     string    `db:"instructor" json:"instructor"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
	Capacity       int       `db:"capacity" json:"capacity"`
	AvailableSlots int       `db:"available_slots" json:"available_slots"`
	Timezone       string    `db:"timezone" json:"timezone"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Localized returns a copy with start/end converted to the display timezone.
// Stored values stay UTC; only the response representation changes.
func (c FitnessClass) Localized(tzID string) (FitnessClass, error) {
	start, err := timezone.Localize(c.StartTime, tzID)
	if err != nil {
		return FitnessClass{}, err
	}
	end, err := timezone.Localize(c.EndTime, tzID)
	if err != nil {
		return FitnessClass{}, err
	}
	c.StartTime = start
	c.EndTime = end
	c.Timezone = tzID
	return c, nil
}

type CreateClassRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
	Instructor  string  `json:"instructor" binding:"required,max=100"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
	Capacity    int     `json:"capacity" binding:"required,min=1"`
}

// UpdateClassRequest applies a field-level partial update; nil means "leave
// unchanged".
type UpdateClassRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Instructor  *string `json:"instructor" binding:"omitempty,min=1,max=100"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=1"`
}
