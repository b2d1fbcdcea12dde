// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries over contact
// requests used by the admin dashboard.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// ContactCounts aggregates contacts by handling state.
type ContactCounts struct {
	Total    int64
	Unread   int64
	ByStatus map[domain.ContactStatus]int64
}

// ContactStats returns the total, the unread count and one count per
// status. Every known status is present in ByStatus, zero when no row has
// it.
//
// It executes two lightweight queries: a GROUP BY over status and a count
// of unread rows.
func ContactStats(ctx context.Context, db *gorm.DB) (ContactCounts, error) {
	out := ContactCounts{ByStatus: make(map[domain.ContactStatus]int64, len(domain.ContactStatuses))}
	for _, s := range domain.ContactStatuses {
		out.ByStatus[s] = 0
	}

	var rows []struct {
		Status domain.ContactStatus
		N      int64
	}
	if err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return ContactCounts{}, err
	}
	for _, r := range rows {
		out.ByStatus[r.Status] = r.N
		out.Total += r.N
	}

	if err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("is_read = ?", false).
		Count(&out.Unread).Error; err != nil {
		return ContactCounts{}, err
	}
	return out, nil
}
