package models

import (
	"fmt"

	"firstcome/internal/pkg/errs"
)

// Status is the position of an order in the kitchen lifecycle.
//
//	NotStarted -> Preparation -> Cooking --(oven done)--> TakeOut ---------> Done
//	                                          \
//	                                           `--(delivery)--> OutForDelivery -> Done
//
// Cooking is left only when the cooking session completes; advancing an order
// that is cooking never moves it.
type Status string

const (
	StatusNotStarted     Status = "not_started"
	StatusPreparation    Status = "preparation"
	StatusCooking        Status = "cooking"
	StatusTakeOut        Status = "take_out"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDone           Status = "done"
)

// StatusSequence is the canonical order of statuses.
var StatusSequence = []Status{
	StatusNotStarted,
	StatusPreparation,
	StatusCooking,
	StatusTakeOut,
	StatusOutForDelivery,
	StatusDone,
}

var statusLabels = map[Status]string{
	StatusNotStarted:     "Not Started",
	StatusPreparation:    "Preparation",
	StatusCooking:        "Cooking",
	StatusTakeOut:        "Take Out",
	StatusOutForDelivery: "Out for Delivery",
	StatusDone:           "Done",
}

// Index returns the position of s in StatusSequence, or -1 for unknown values.
func (s Status) Index() int {
	for i, st := range StatusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Validate checks that s is one of the known statuses.
func (s Status) Validate() error {
	if s.Index() < 0 {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("unknown value %q", string(s)))
	}
	return nil
}

// Label returns the human-readable name shown on the dashboard and tracker.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Unknown"
}

func (s Status) String() string {
	return string(s)
}

// Transition is the outcome of Advance.
type Transition struct {
	// Status is the status to persist. It equals the current status when the
	// order does not move.
	Status Status
	// StartCooking asks the caller to start the cooking session for the order.
	StartCooking bool
}

// Advance decides the next status of an order. It has no side effects: starting
// the cooking session and persisting the result are up to the caller.
//
// ovenActive reports whether a cooking session is running for any order.
func Advance(cur Status, dm DeliveryMethod, ovenActive bool) (Transition, error) {
	if err := cur.Validate(); err != nil {
		return Transition{}, err
	}
	if !dm.Valid() {
		return Transition{}, errs.NewValueIsInvalidErrorWithCause("delivery_method", fmt.Errorf("unknown value %q", string(dm)))
	}

	switch cur {
	case StatusPreparation:
		return Transition{Status: StatusCooking, StartCooking: !ovenActive}, nil
	case StatusCooking:
		// Only the session completion moves a cooking order forward.
		return Transition{Status: StatusCooking, StartCooking: !ovenActive}, nil
	case StatusTakeOut:
		if dm == DeliveryDelivery {
			return Transition{Status: StatusOutForDelivery}, nil
		}
		return Transition{Status: StatusDone}, nil
	case StatusDone:
		return Transition{Status: StatusDone}, nil
	}

	return Transition{Status: StatusSequence[cur.Index()+1]}, nil
}

// FinishCooking returns the status an order moves to when its cooking session completes.
// Delivery orders skip the take-out counter.
func FinishCooking(dm DeliveryMethod) Status {
	if dm == DeliveryDelivery {
		return StatusOutForDelivery
	}
	return StatusTakeOut
}
