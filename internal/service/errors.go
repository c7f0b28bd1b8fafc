package service

import "errors"

// Sentinel errors services return for handler-level mapping to response
// codes. Repositories surface pgx errors; services translate them here.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("resource belongs to another user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidMode        = errors.New("operation not valid for this attempt mode")
	ErrAlreadyCompleted   = errors.New("attempt already completed")
	ErrSectionOrder       = errors.New("section index out of order")
	ErrSectionNotStarted  = errors.New("section clock has not started")
	ErrMissingBlueprint   = errors.New("no active blueprint for exam")
	ErrInsufficientBank   = errors.New("question bank too small for request")
	ErrNotReviewable      = errors.New("import has no reviewable draft")
	ErrImportBusy         = errors.New("import already queued or processing")
	ErrDraftIncomplete    = errors.New("draft targeting metadata incomplete")
	ErrQueueDispatch      = errors.New("queue dispatch failed")
)
