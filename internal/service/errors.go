package service

import (
	"errors"

	"github.com/imperionite/fm-core/internal/catalog"
	"github.com/imperionite/fm-core/internal/domain"
)

// Business-rule violations are detected before any mutating write; handlers
// map each sentinel to its contractual status code.
var (
	ErrMissingServiceID = errors.New("missing service_id")
	ErrDuplicateItem    = errors.New("service already in cart")
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotFound     = errors.New("item not in cart")
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
	ErrOrderNotPayable  = errors.New("order is not in a payable state")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrInvalidStatus    = errors.New("invalid order status")

	// re-exported so handlers depend on this package only
	ErrServiceNotFound  = catalog.ErrServiceNotFound
	ErrTransitionDenied = domain.ErrTransitionDenied
)
