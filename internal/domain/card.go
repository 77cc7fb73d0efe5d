package domain

// ============================================================
// Cardholders & virtual cards
// ============================================================

// Address is a cardholder billing address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// DateOfBirth is a cardholder birth date.
type DateOfBirth struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// CardholderProfile carries the input fields for cardholder creation.
// DOB is a raw value because callers have been observed to send strings
// and numbers where an object is expected; coercion happens in the service.
type CardholderProfile struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
	DOB     any     `json:"dob,omitempty"`
}

// Cardholder is the identity profile required before a virtual card can
// be issued. At most one per connected account. FirstName/LastName are
// derived from the submitted name by splitting on the first whitespace
// run; a single-word name fills both.
type Cardholder struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Address   Address     `json:"address"`
	DOB       DateOfBirth `json:"dob"`
	Status    string      `json:"status"`
}

// SpendingInterval is the window a virtual card spending limit applies to.
type SpendingInterval string

const (
	IntervalPerAuthorization SpendingInterval = "per_authorization"
	IntervalDaily            SpendingInterval = "daily"
	IntervalWeekly           SpendingInterval = "weekly"
	IntervalMonthly          SpendingInterval = "monthly"
	IntervalYearly           SpendingInterval = "yearly"
	IntervalAllTime          SpendingInterval = "all_time"
)

// ValidSpendingInterval reports whether s is one of the allowed intervals.
func ValidSpendingInterval(s SpendingInterval) bool {
	switch s {
	case IntervalPerAuthorization, IntervalDaily, IntervalWeekly,
		IntervalMonthly, IntervalYearly, IntervalAllTime:
		return true
	}
	return false
}

// MaxSpendingLimitCents caps virtual card spending limits. Requests above
// the cap are clamped, not rejected.
const MaxSpendingLimitCents int64 = 50000

// VirtualCardRequest carries the optional limit parameters for card creation.
type VirtualCardRequest struct {
	SpendingLimitAmount   int64            `json:"spending_limit_amount,omitempty"`
	SpendingLimitInterval SpendingInterval `json:"spending_limit_interval,omitempty"`
}

// VirtualCard is an issued virtual card. At most one active card exists
// per connected account; replacement goes through an explicit
// revoke-and-reissue flow, never silent creation.
type VirtualCard struct {
	ID                    string           `json:"id"`
	CardholderID          string           `json:"cardholder_id"`
	Last4                 string           `json:"last4"`
	Status                string           `json:"status"`
	Currency              string           `json:"currency"`
	SpendingLimitAmount   int64            `json:"spending_limit_amount"`
	SpendingLimitInterval SpendingInterval `json:"spending_limit_interval"`
}

// Active reports whether the card can currently authorize spend.
func (c *VirtualCard) Active() bool {
	return c != nil && c.Status == "active"
}
