package booking

import (
	"time"

	"classbook/internal/class"
)

type Booking struct {
	ID             int       `db:"id" json:"id"`
	FitnessClassID int       `db:"fitness_class_id" json:"fitness_class_id"`
	ClientName     string    `db:"client_name" json:"client_name"`
	ClientEmail    string    `db:"client_email" json:"client_email"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// BookingWithClass is a booking with its owning class eagerly attached,
// class times localized to the request's display timezone.
type BookingWithClass struct {
	Booking
	FitnessClass class.FitnessClass `json:"fitness_class"`
}

type BookRequest struct {
	FitnessClassID int    `json:"fitness_class_id" binding:"required,min=1"`
	ClientName     string `json:"client_name" binding:"required,min=1,max=100"`
	ClientEmail    string `json:"client_email" binding:"required,email,max=100"`
}

type CancelResult struct {
	Status         string `json:"status" example:"success"`
	Message        string `json:"message" example:"Booking cancelled successfully"`
	ClassName      string `json:"class_name"`
	AvailableSlots int    `json:"available_slots"`
}

// Availability is the consistent snapshot returned by the availability
// check.
type Availability struct {
	ClassID        int       `json:"class_id"`
	ClassName      string    `json:"class_name"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AvailableSlots int       `json:"available_slots"`
	TotalCapacity  int       `json:"total_capacity"`
	IsAvailable    bool      `json:"is_available"`
	TimeUntilStart float64   `json:"time_until_start"`
	Timezone       string    `json:"timezone"`
}
