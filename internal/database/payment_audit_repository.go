package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db, logger: logger}
}

// Log creates a new payment audit entry. Payment events must never fail
// silently, so errors are both logged and returned.
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, payment_reference, booking_reference, event_type,
			amount_cents, user_id, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.PaymentReference, audit.BookingReference, audit.EventType,
		audit.AmountCents, audit.UserID, audit.IPAddress, audit.UserAgent, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":        audit.EventType,
			"payment_reference": audit.PaymentReference,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":          audit.ID,
		"event_type":        audit.EventType,
		"payment_reference": audit.PaymentReference,
	}).Debug("Payment audit logged")
	return nil
}

// GetByPaymentReference returns the audit trail for one payment reference.
func (r *PaymentAuditRepository) GetByPaymentReference(ctx context.Context, paymentRef string) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, payment_reference, booking_reference, event_type,
		       amount_cents, user_id, ip_address, user_agent, created_at
		FROM payment_audits
		WHERE payment_reference = $1
		ORDER BY created_at`

	var audits []models.PaymentAudit
	if err := r.db.SelectContext(ctx, &audits, query, paymentRef); err != nil {
		return nil, fmt.Errorf("failed to get payment audits: %w", err)
	}
	return audits, nil
}
