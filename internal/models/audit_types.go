package models

import "time"

// Audit actions recorded for order and payment transitions.
const (
	AuditOrderCreated       = "order.created"
	AuditOrderStatusChanged = "order.status_changed"
	AuditOrderCancelled     = "order.cancelled"
	AuditOrderTracking      = "order.tracking_updated"
	AuditPaymentCreated     = "payment.created"
	AuditPaymentSucceeded   = "payment.succeeded"
	AuditPaymentFailed      = "payment.failed"
	AuditPaymentRefunded    = "payment.refunded"
)

// AuditEntry is one row of the audit trail ('audit_logs' table or the audit topic).
type AuditEntry struct {
	ID         string         `json:"id" db:"id"`
	Action     string         `json:"action" db:"action"`
	EntityType string         `json:"entityType" db:"entity_type"`
	EntityID   string         `json:"entityId" db:"entity_id"`
	PharmacyID *int64         `json:"pharmacyId,omitempty" db:"pharmacy_id"`
	ActorID    *int64         `json:"actorId,omitempty" db:"actor_id"`
	FromStatus string         `json:"fromStatus,omitempty" db:"from_status"`
	ToStatus   string         `json:"toStatus,omitempty" db:"to_status"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}
