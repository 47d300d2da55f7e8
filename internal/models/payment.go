package models

import "time"

// Payment records one settled payment. The unique constraint on
// payment_reference is the idempotency guard for settlement: a replayed
// payment fails at insert time, not by a best-effort existence check.
type Payment struct {
	ID               string        `json:"id" db:"id"`
	PaymentReference string        `json:"payment_reference" db:"payment_reference"`
	BookingID        string        `json:"booking_id" db:"booking_id"`
	PaymentMethod    string        `json:"payment_method" db:"payment_method"`
	CardLast4Hash    string        `json:"-" db:"card_last4_hash"`
	ExpiryHash       string        `json:"-" db:"expiry_hash"`
	CVVHash          string        `json:"-" db:"cvv_hash"`
	Status           PaymentStatus `json:"status" db:"status"`
	RefundSeats      StringArray   `json:"refund_seats,omitempty" db:"refund_seats"`
	RefundAmount     *int64        `json:"refund_amount_cents,omitempty" db:"refund_amount_cents"`
	RefundedAt       *time.Time    `json:"refunded_at,omitempty" db:"refunded_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// CardDetails is the cleartext credential material received from the caller.
// It is bcrypt-masked before anything touches storage and never persisted
// reversibly.
type CardDetails struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=credit_card debit_card paypal"`
	CardNumber    string `json:"card_number" binding:"required"`
	ExpiryDate    string `json:"expiry_date" binding:"required"`
	CVV           string `json:"cvv" binding:"required,len=3"`
}

// SettlePaymentRequest confirms payment for a pending booking.
type SettlePaymentRequest struct {
	PaymentReference string      `json:"payment_reference" binding:"required"`
	AccountDetails   CardDetails `json:"account_details" binding:"required"`
}

// SettlementResult is returned on successful settlement.
type SettlementResult struct {
	BookingReference string             `json:"booking_reference"`
	BusID            string             `json:"bus_id"`
	Seats            SeatAssignmentList `json:"seats"`
	TotalPriceCents  int64              `json:"total_price_cents"`
	PaymentStatus    PaymentStatus      `json:"payment_status"`
}

// SeatRestoration is one pending unit of the cancellation recovery list: the
// seats of one booking awaiting re-insertion into one stop's availability.
// Restorations are applied idempotently and retried until every row for the
// booking is confirmed.
type SeatRestoration struct {
	ID        string      `json:"id" db:"id"`
	BookingID string      `json:"booking_id" db:"booking_id"`
	StopID    string      `json:"stop_id" db:"stop_id"`
	Seats     StringArray `json:"seats" db:"seats"`
	Applied   bool        `json:"applied" db:"applied"`
	Attempts  int         `json:"attempts" db:"attempts"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	AppliedAt *time.Time  `json:"applied_at,omitempty" db:"applied_at"`
}

// PaymentAuditEventType classifies payment audit entries.
type PaymentAuditEventType string

const (
	PaymentEventSettled      PaymentAuditEventType = "settled"
	PaymentEventDuplicate    PaymentAuditEventType = "duplicate_rejected"
	PaymentEventRefundIssued PaymentAuditEventType = "refund_issued"
)

// PaymentAudit is an append-only record of payment lifecycle events.
type PaymentAudit struct {
	ID               string                `json:"id" db:"id"`
	PaymentReference string                `json:"payment_reference" db:"payment_reference"`
	BookingReference *string               `json:"booking_reference,omitempty" db:"booking_reference"`
	EventType        PaymentAuditEventType `json:"event_type" db:"event_type"`
	AmountCents      int64                 `json:"amount_cents" db:"amount_cents"`
	UserID           string                `json:"user_id" db:"user_id"`
	IPAddress        string                `json:"ip_address" db:"ip_address"`
	UserAgent        string                `json:"user_agent" db:"user_agent"`
	CreatedAt        time.Time             `json:"created_at" db:"created_at"`
}
