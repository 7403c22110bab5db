package landing

import (
	"context"
	"errors"
)

var (
	// ErrWriteRejected marks a lead write the store answered with an error
	// payload, as opposed to a write that never reached it.
	ErrWriteRejected      = errors.New("lead write rejected")
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// EventLead is the conversion event fired after a lead is stored.
const EventLead = "Lead"

type Lead struct {
	Name           string `json:"name" db:"name" bson:"name"`
	WhatsApp       string `json:"whatsapp" db:"whatsapp" bson:"whatsapp"`
	Email          string `json:"email" db:"email" bson:"email"`
	RevenueBracket string `json:"revenue_bracket" db:"revenue_bracket" bson:"revenue_bracket"`
}

type LeadStore interface {
	Insert(ctx context.Context, lead Lead) error
}

// Tracker dispatches conversion events without waiting for delivery.
type Tracker interface {
	Track(ctx context.Context, event string)
}
