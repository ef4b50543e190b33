package services

import "errors"

// Service-level sentinel errors, mapped to API errors by the transport
// layer.
var (
	// ErrSessionNotFound indicates an unknown or expired dataset session.
	ErrSessionNotFound = errors.New("dataset session not found")

	// ErrEmptyWorkbook indicates an upload whose sheet held no data rows
	// after cleaning.
	ErrEmptyWorkbook = errors.New("workbook contains no usable data rows")
)
