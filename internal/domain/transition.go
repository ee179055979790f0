package domain

import (
	"errors"
	"fmt"
)

// Role is the requester's relationship to an order.
type Role int

const (
	RoleNone Role = iota
	RoleOwner
	RoleStaff
)

// ErrTransitionDenied is returned for every disallowed status change,
// whatever the reason.
var ErrTransitionDenied = errors.New("status transition not allowed")

// RoleFor classifies a user against an order. Staff outranks ownership: a
// staff member who also owns the order gets the staff rules.
func RoleFor(u *User, o *Order) Role {
	switch {
	case u.Staff:
		return RoleStaff
	case u.ID == o.UserID:
		return RoleOwner
	default:
		return RoleNone
	}
}

// CanTransition evaluates the status-transition policy. It is a pure
// function over (role, current, requested) so the full matrix can be tested
// without any storage or HTTP plumbing.
//
//	staff: any → cancelled, unless current is completed or refunded
//	staff: paid → completed
//	owner: paid → completed
//	owner: pending|confirmed → cancelled
//	anyone else: denied
func CanTransition(role Role, current, requested OrderStatus) error {
	switch role {
	case RoleStaff:
		switch requested {
		case OrderStatusCancelled:
			if current == OrderStatusCompleted || current == OrderStatusRefunded {
				return fmt.Errorf("%w: cannot cancel a %s order", ErrTransitionDenied, current)
			}
			return nil
		case OrderStatusCompleted:
			if current != OrderStatusPaid {
				return fmt.Errorf("%w: only paid orders can be completed", ErrTransitionDenied)
			}
			return nil
		}
	case RoleOwner:
		switch requested {
		case OrderStatusCompleted:
			if current == OrderStatusPaid {
				return nil
			}
			return fmt.Errorf("%w: only paid orders can be completed", ErrTransitionDenied)
		case OrderStatusCancelled:
			if current == OrderStatusPending || current == OrderStatusConfirmed {
				return nil
			}
			return fmt.Errorf("%w: cannot cancel a %s order", ErrTransitionDenied, current)
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrTransitionDenied, current, requested)
}
