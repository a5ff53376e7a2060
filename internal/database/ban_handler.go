package database

import (
	"errors"
	"strings"
	"time"

	"lark/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsBanned reports whether ip currently has an active ban. The ban row is
// returned alongside so callers can log the reason.
func IsBanned(ip string) (bool, domain.IPBan, error) {
	if DB == nil {
		return false, domain.IPBan{}, errors.New("database not initialised")
	}

	var ban domain.IPBan
	err := DB.Where("ip = ? AND (is_permanent = ? OR expires_at > ?)", ip, true, time.Now().UTC()).
		First(&ban).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.IPBan{}, nil
		}
		return false, domain.IPBan{}, err
	}

	return true, ban, nil
}

// BanIP upserts a ban for ip. Re-banning overwrites reason, expiry and
// permanence and increments the occurrence counter instead of inserting a
// duplicate row; the unique index on ip makes the write race-safe when two
// requests trip the rate limit simultaneously.
func BanIP(ip, reason string, duration time.Duration, permanent bool) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ban := domain.IPBan{
		IP:              ip,
		Reason:          truncate(reason, 512),
		IsPermanent:     permanent,
		OccurrenceCount: 1,
	}
	if !permanent {
		expires := time.Now().UTC().Add(duration)
		ban.ExpiresAt = &expires
	}

	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip"}},
		DoUpdates: clause.Assignments(map[string]any{
			"reason":           ban.Reason,
			"expires_at":       ban.ExpiresAt,
			"is_permanent":     ban.IsPermanent,
			"occurrence_count": gorm.Expr("ip_bans.occurrence_count + 1"),
			"updated_at":       time.Now().UTC(),
		}),
	}).Create(&ban).Error
}

// UnbanIP removes the ban row for ip. Removing a nonexistent ban is not an
// error.
func UnbanIP(ip string) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	return DB.Where("ip = ?", ip).Delete(&domain.IPBan{}).Error
}

// BanFilter narrows ListBans. Zero values mean "no filter".
type BanFilter struct {
	Search     string // substring match on IP or reason
	ActiveOnly bool
	Permanent  *bool
	Page       int
	PageSize   int
}

// ListBans returns a page of ban rows, newest first, with the total row count
// for the applied filter.
func ListBans(filter BanFilter) ([]domain.IPBan, int64, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialised")
	}

	query := DB.Model(&domain.IPBan{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("ip LIKE ? OR reason LIKE ?", pattern, pattern)
	}
	if filter.ActiveOnly {
		query = query.Where("is_permanent = ? OR expires_at > ?", true, time.Now().UTC())
	}
	if filter.Permanent != nil {
		query = query.Where("is_permanent = ?", *filter.Permanent)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	var bans []domain.IPBan
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&bans).Error
	if err != nil {
		return nil, 0, err
	}

	return bans, total, nil
}

// ActiveBanCount counts bans that are still blocking requests.
func ActiveBanCount() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var count int64
	err := DB.Model(&domain.IPBan{}).
		Where("is_permanent = ? OR expires_at > ?", true, time.Now().UTC()).
		Count(&count).Error
	return count, err
}

// BansCreatedSince counts ban rows created after the given time.
func BansCreatedSince(since time.Time) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var count int64
	err := DB.Model(&domain.IPBan{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
