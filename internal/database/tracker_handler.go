package database

import (
	"errors"
	"time"

	"lark/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRequest upserts the tracking row for ip in a single atomic statement.
// A fresh IP gets a row with count 1. An existing row has its counter
// incremented while its window anchor is still inside the window; once the
// anchor has aged out, the counter restarts at 1 and the anchor moves to now.
// Anchoring the reset on the window start rather than the previous hit keeps
// the count bounded for clients that send steadily below the limit. Two
// concurrent requests from the same fresh IP observe counts 1 and 2, never 1
// and 1.
func RecordRequest(ip, method, userAgent, uri string, window, postWindow time.Duration) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	now := time.Now().UTC()
	record := domain.RequestRecord{
		IP:            ip,
		RequestCount:  1,
		WindowStart:   now,
		LastRequest:   now,
		RequestMethod: truncate(method, 10),
		UserAgent:     truncate(userAgent, 255),
		RequestURI:    truncate(uri, 255),
	}

	cutoff := now.Add(-window)
	assignments := map[string]any{
		"request_count":  gorm.Expr("CASE WHEN request_records.window_start < ? THEN 1 ELSE request_records.request_count + 1 END", cutoff),
		"window_start":   gorm.Expr("CASE WHEN request_records.window_start < ? THEN ? ELSE request_records.window_start END", cutoff, now),
		"last_request":   now,
		"request_method": record.RequestMethod,
		"user_agent":     record.UserAgent,
		"request_uri":    record.RequestURI,
	}

	if method == "POST" {
		record.PostCount = 1
		record.PostWindowStart = &now
		postCutoff := now.Add(-postWindow)
		assignments["post_count"] = gorm.Expr("CASE WHEN request_records.post_window_start IS NULL OR request_records.post_window_start < ? THEN 1 ELSE request_records.post_count + 1 END", postCutoff)
		assignments["post_window_start"] = gorm.Expr("CASE WHEN request_records.post_window_start IS NULL OR request_records.post_window_start < ? THEN ? ELSE request_records.post_window_start END", postCutoff, now)
	}

	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
}

// CountInWindow returns how many requests ip has made in its current counting
// window. A record whose window anchor has aged out contributes nothing.
func CountInWindow(ip string, window time.Duration) (uint64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var record domain.RequestRecord
	err := DB.Where("ip = ? AND window_start > ?", ip, time.Now().UTC().Add(-window)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return record.RequestCount, nil
}

// PostCountInWindow mirrors CountInWindow for the POST burst counter.
func PostCountInWindow(ip string, window time.Duration) (uint64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var record domain.RequestRecord
	err := DB.Where("ip = ? AND post_window_start > ?", ip, time.Now().UTC().Add(-window)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return record.PostCount, nil
}

// PruneStaleRequests deletes tracking rows whose last activity is older than
// the retention window, bounding table growth.
func PruneStaleRequests(retention time.Duration) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	result := DB.Where("last_request < ?", time.Now().UTC().Add(-retention)).
		Delete(&domain.RequestRecord{})
	return result.RowsAffected, result.Error
}

// RequestTotalsSince sums tracked request counts with activity after the
// given time. Used by the admin console for aggregate traffic numbers.
func RequestTotalsSince(since time.Time) (uint64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var total *uint64
	err := DB.Model(&domain.RequestRecord{}).
		Where("last_request >= ?", since).
		Select("SUM(request_count)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// TrackedClientCount returns the number of IPs with a live tracking row.
func TrackedClientCount() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var count int64
	err := DB.Model(&domain.RequestRecord{}).Count(&count).Error
	return count, err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
