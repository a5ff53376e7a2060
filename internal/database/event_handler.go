package database

import (
	"errors"
	"time"

	"lark/internal/domain"
)

// LogSecurityEvent appends a row to the audit trail. The trail is advisory:
// callers treat failures as non-fatal and must not block the request path on
// them.
func LogSecurityEvent(ip, eventType, description, userAgent string) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	event := domain.SecurityEvent{
		IP:          ip,
		EventType:   eventType,
		Description: truncate(description, 512),
		UserAgent:   truncate(userAgent, 255),
	}

	return DB.Create(&event).Error
}

// EventFilter narrows ListSecurityEvents. Zero values mean "no filter".
type EventFilter struct {
	IP        string
	EventType string
	Since     time.Time
	Page      int
	PageSize  int
}

// ListSecurityEvents returns a page of audit rows, newest first, with the
// total count for the applied filter.
func ListSecurityEvents(filter EventFilter) ([]domain.SecurityEvent, int64, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialised")
	}

	query := DB.Model(&domain.SecurityEvent{})

	if filter.IP != "" {
		query = query.Where("ip = ?", filter.IP)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	var events []domain.SecurityEvent
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// PruneSecurityEvents deletes audit rows older than the retention window.
func PruneSecurityEvents(retention time.Duration) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	result := DB.Where("created_at < ?", time.Now().UTC().Add(-retention)).
		Delete(&domain.SecurityEvent{})
	return result.RowsAffected, result.Error
}
