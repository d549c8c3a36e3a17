package leave

import "time"

const (
	TypePaid   = "PAID"
	TypeSick   = "SICK"
	TypeUnpaid = "UNPAID"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type Request struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName,omitempty"`
	Type         string     `json:"type"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	Days         float64    `json:"days"`
	Remarks      string     `json:"remarks"`
	Status       string     `json:"status"`
	AdminComment *string    `json:"adminComment"`
	DecidedBy    *string    `json:"decidedBy"`
	DecidedAt    *time.Time `json:"decidedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Terminal reports whether no further transition is allowed.
func (r Request) Terminal() bool {
	return r.Status != StatusPending
}

type SubmitInput struct {
	Type      string `json:"type" validate:"required,oneof=PAID SICK UNPAID"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Remarks   string `json:"remarks" validate:"max=1000"`
}

type DecideInput struct {
	Status  string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Comment string `json:"comment" validate:"max=1000"`
}

// NewRequest is what the store persists on submit.
type NewRequest struct {
	UserID    string
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Remarks   string
}

type ListFilter struct {
	UserID string
	Status string
}
