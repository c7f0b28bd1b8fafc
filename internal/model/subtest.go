package model

import (
	"time"

	"github.com/google/uuid"
)

// Subtest is one subject area of the exam (e.g. PU — Penalaran Umum).
// Blueprint sections bind to subtests; practice attempts draw questions
// from a single subtest.
type Subtest struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	OrderNum  int       `json:"order_num"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSubtestRequest is the payload for creating a subtest.
type CreateSubtestRequest struct {
	Code     string `json:"code" binding:"required,min=2,max=10"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	OrderNum int    `json:"order_num" binding:"min=0"`
}
