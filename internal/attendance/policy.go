package attendance

import (
	"fmt"
	"strconv"
	"time"
)

type PunchType string

const (
	CheckIn    PunchType = "CHECK_IN"
	CheckOut   PunchType = "CHECK_OUT"
	BreakStart PunchType = "BREAK_START"
	BreakEnd   PunchType = "BREAK_END"
)

func (t PunchType) Valid() bool {
	switch t {
	case CheckIn, CheckOut, BreakStart, BreakEnd:
		return true
	}
	return false
}

type Status string

const (
	StatusIn    Status = "IN"
	StatusOut   Status = "OUT"
	StatusBreak Status = "BREAK"
)

// Rounding is the boundary, in minutes, a check-in time snaps to before
// lateness is computed. Zero disables rounding.
type Rounding int

const (
	RoundNone Rounding = 0
	Round5    Rounding = 5
	Round10   Rounding = 10
	Round15   Rounding = 15
)

// ParseRounding accepts the stored policy values NONE, 5, 10 and 15.
func ParseRounding(s string) (Rounding, error) {
	if s == "" || s == "NONE" {
		return RoundNone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return RoundNone, fmt.Errorf("invalid rounding %q", s)
	}
	switch r := Rounding(n); r {
	case Round5, Round10, Round15:
		return r, nil
	}
	return RoundNone, fmt.Errorf("invalid rounding %q", s)
}

func (r Rounding) String() string {
	if r == RoundNone {
		return "NONE"
	}
	return strconv.Itoa(int(r))
}

// apply snaps t to the nearest boundary counted from local midnight, so
// zones with non-hour offsets still land on :00/:15/:30/:45.
func (r Rounding) apply(t time.Time) time.Time {
	if r <= 0 {
		return t
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight).Round(time.Duration(r) * time.Minute))
}

// AfterCheckout decides what a punch after CHECK_OUT on the same day does.
type AfterCheckout string

const (
	AfterCheckoutReject     AfterCheckout = "REJECT"
	AfterCheckoutNewSegment AfterCheckout = "NEW_SEGMENT"
)

func ParseAfterCheckout(s string) (AfterCheckout, error) {
	switch AfterCheckout(s) {
	case "", AfterCheckoutReject:
		return AfterCheckoutReject, nil
	case AfterCheckoutNewSegment:
		return AfterCheckoutNewSegment, nil
	}
	return AfterCheckoutReject, fmt.Errorf("invalid after-checkout mode %q", s)
}

type Policy struct {
	GraceInMinutes  int
	GraceOutMinutes int
	Rounding        Rounding
	AfterCheckout   AfterCheckout
}

// DefaultPolicy rejects punches after check-out and applies no grace or rounding.
func DefaultPolicy() Policy {
	return Policy{AfterCheckout: AfterCheckoutReject}
}
