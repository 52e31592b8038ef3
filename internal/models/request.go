package models

import (
	"time"

	"github.com/google/uuid"
)

// Request status constants.
const (
	RequestNew         = "new"
	RequestUnderReview = "under_review"
	RequestApproved    = "approved"
	RequestConverted   = "converted"
	RequestRejected    = "rejected"
)

// Request priority constants.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Request is an inbound ask from a client for new content.
type Request struct {
	ID                 uuid.UUID  `json:"id"`
	ClientID           uuid.UUID  `json:"client_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	ContentType        string     `json:"content_type"`
	Priority           string     `json:"priority"` // low, normal, high, urgent
	Status             string     `json:"status"`   // new, under_review, approved, converted, rejected
	ConvertedContentID *uuid.UUID `json:"converted_content_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsOpen returns true if the request can still be accepted and is shown on the board.
func (r *Request) IsOpen() bool {
	return IsOpenRequestStatus(r.Status)
}

// IsOpenRequestStatus returns true for the pre-conversion request states.
func IsOpenRequestStatus(s string) bool {
	return s == RequestNew || s == RequestUnderReview || s == RequestApproved
}

// IsValidRequestStatus returns true for any known request status.
func IsValidRequestStatus(s string) bool {
	return IsOpenRequestStatus(s) || s == RequestConverted || s == RequestRejected
}

// IsValidPriority returns true for a known priority.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
