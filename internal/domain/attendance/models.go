package attendance

import "time"

const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusHalfDay = "HALF_DAY"
	StatusLeave   = "LEAVE"
	StatusLate    = "LATE"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave, StatusLate}

const (
	ToggleCheckedIn  = "CHECKED_IN"
	ToggleCheckedOut = "CHECKED_OUT"
)

type Record struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Date           string     `json:"date"`
	CheckIn        *time.Time `json:"checkIn"`
	CheckOut       *time.Time `json:"checkOut"`
	Status         string     `json:"status"`
	CorrectionNote *string    `json:"correctionNote"`
	Duration       *string    `json:"duration"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ToggleResult struct {
	Status string `json:"status"`
	Record Record `json:"record"`
}

// DailyEntry is one row of the admin overview for a date.
type DailyEntry struct {
	Record
	UserName   string `json:"userName"`
	EmployeeID string `json:"employeeId"`
	Department string `json:"department"`
}

// CorrectionPatch overwrites a record outside the clock-in/out flow. Nil
// fields keep their value; the Clear flags null a timestamp explicitly.
type CorrectionPatch struct {
	Status        *string    `json:"status" validate:"omitempty,oneof=PRESENT ABSENT HALF_DAY LEAVE LATE"`
	CheckIn       *time.Time `json:"checkIn"`
	CheckOut      *time.Time `json:"checkOut"`
	ClearCheckIn  bool       `json:"clearCheckIn"`
	ClearCheckOut bool       `json:"clearCheckOut"`
	Note          string     `json:"note" validate:"required,max=500"`
}

type Correction struct {
	ID          string    `json:"id"`
	RecordID    string    `json:"recordId"`
	CorrectedBy string    `json:"correctedBy"`
	Before      Record    `json:"before"`
	After       Record    `json:"after"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SweepResult struct {
	Date    string `json:"date"`
	Absent  int    `json:"absent"`
	OnLeave int    `json:"onLeave"`
	Skipped bool   `json:"skipped"`
}

// Day truncates t to its calendar date in t's own location, returned as
// midnight UTC so it can be bound to a DATE column.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
