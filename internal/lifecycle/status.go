package lifecycle

import (
	"errors"
	"fmt"
)

// Status is the integer order status stored in rental_orders.status.
type Status int

const (
	StatusFailed       Status = -2
	StatusRefunded     Status = -1
	StatusCreated      Status = 0
	StatusConfirmed    Status = 1
	StatusEmailSent    Status = 2
	StatusSizesPartial Status = 3
	StatusFinalized    Status = 4
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists the allowed successors of every status.
var transitions = map[Status][]Status{
	StatusCreated:      {StatusConfirmed, StatusEmailSent, StatusFailed},
	StatusConfirmed:    {StatusEmailSent, StatusRefunded},
	StatusEmailSent:    {StatusEmailSent, StatusSizesPartial, StatusFinalized, StatusRefunded},
	StatusSizesPartial: {StatusSizesPartial, StatusFinalized, StatusRefunded},
	StatusFinalized:    {StatusRefunded},
	StatusRefunded:     {},
	StatusFailed:       {},
}

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusRefunded:
		return "refunded"
	case StatusCreated:
		return "created"
	case StatusConfirmed:
		return "confirmed"
	case StatusEmailSent:
		return "email_sent"
	case StatusSizesPartial:
		return "sizes_partial"
	case StatusFinalized:
		return "finalized"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is one of the known codes.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Paid reports whether the order has passed payment confirmation.
func (s Status) Paid() bool {
	return s > StatusCreated
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !to.Valid() {
		return from, fmt.Errorf("%w: unknown status %d", ErrInvalidTransition, int(to))
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Label returns the admin-facing label for a status in the given language.
func Label(s Status, lang string) string {
	if lang == "es" {
		switch s {
		case StatusFailed:
			return "Fallido"
		case StatusRefunded:
			return "Reembolsado"
		case StatusCreated:
			return "Pendiente"
		case StatusConfirmed:
			return "Pagado"
		case StatusEmailSent:
			return "Correo enviado"
		case StatusSizesPartial:
			return "Tallas parciales"
		case StatusFinalized:
			return "Finalizado"
		}
	}
	switch s {
	case StatusFailed:
		return "Failed"
	case StatusRefunded:
		return "Refunded"
	case StatusCreated:
		return "Pending"
	case StatusConfirmed:
		return "Paid"
	case StatusEmailSent:
		return "Email sent"
	case StatusSizesPartial:
		return "Sizes partial"
	case StatusFinalized:
		return "Finalized"
	}
	return s.String()
}
