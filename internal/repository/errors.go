// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios. For example, ErrSeatConflict indicates that a seat is
// already held or booked by someone else, while ErrOrderFinalized
// signals that settlement already ran for an order and must not run
// its side effects again.
package repository

import "errors"

// ErrShowingNotFound is returned when a showing ID does not resolve to a
// row. Handlers should translate this into an HTTP 404 response.
var ErrShowingNotFound = errors.New("showing not found")

// ErrOrderNotFound is returned when an order ID does not resolve to a
// row. Handlers should translate this into an HTTP 404 response.
var ErrOrderNotFound = errors.New("order not found")

// ErrPaymentNotFound is returned when no payment record exists for an
// (order, gateway) pair.
var ErrPaymentNotFound = errors.New("payment record not found")

// ErrUserNotFound is returned when a user ID does not resolve to a row.
var ErrUserNotFound = errors.New("user not found")

// ErrSeatConflict is returned when a mutation cannot proceed because a
// seat is held by another user or already booked. This is an expected,
// user-facing outcome and not logged as an error.
var ErrSeatConflict = errors.New("seat conflict")

// ErrOrderFinalized is returned when an order is already paid or
// completed. Settlement treats this as a duplicate callback and
// acknowledges it without repeating side effects.
var ErrOrderFinalized = errors.New("order already finalized")
