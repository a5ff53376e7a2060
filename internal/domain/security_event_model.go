package domain

import "time"

// Security event types recorded in the audit trail.
const (
	EventBlockedAccess    = "BLOCKED_ACCESS"
	EventDDoSDetected     = "DDOS_DETECTED"
	EventIPBanned         = "IP_BANNED"
	EventIPUnbanned       = "IP_UNBANNED"
	EventSuspiciousPost   = "SUSPICIOUS_POST"
	EventCSRFFailure      = "CSRF_FAILURE"
	EventCaptchaFailure   = "CAPTCHA_FAILURE"
	EventAdminLogin       = "ADMIN_LOGIN"
	EventAdminLoginFailed = "ADMIN_LOGIN_FAILED"
)

// SecurityEvent is an append-only audit record. Rows are never mutated and
// are pruned once they fall outside the event retention window.
type SecurityEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	IP          string `gorm:"size:45;not null;index"`
	EventType   string `gorm:"size:32;not null;index"`
	Description string `gorm:"size:512;not null;default:''"`
	UserAgent   string `gorm:"size:255;not null;default:''"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}
