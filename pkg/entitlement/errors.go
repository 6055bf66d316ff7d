package entitlement

import "errors"

var (
	ErrUnknownTier        = errors.New("entitlement: unknown tier")
	ErrUnknownFeature     = errors.New("entitlement: unknown feature")
	ErrIncompletePolicy   = errors.New("entitlement: policy missing entry")
	ErrNonMonotonicPolicy = errors.New("entitlement: higher tier grants less than lower tier")
	ErrInvalidPolicy      = errors.New("entitlement: invalid policy configuration")
)
