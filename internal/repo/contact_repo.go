package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// CreateContact inserts c as is. The caller assigns ID and timestamps.
func CreateContact(ctx context.Context, db *gorm.DB, c *domain.Contact) error {
	return db.WithContext(ctx).Create(c).Error
}

// ContactSubmittedSince reports whether email has a contact created at or
// after since. The lookup is served by idx_contacts_email_created.
func ContactSubmittedSince(ctx context.Context, db *gorm.DB, email string, since time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("email = ? AND created_at >= ?", email, since).
		Count(&n).Error
	return n > 0, err
}

// CountContacts returns the number of contacts, optionally restricted to one
// status. An empty status counts every row.
func CountContacts(ctx context.Context, db *gorm.DB, status domain.ContactStatus) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Contact{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListContactsPage returns contacts newest first. Use CountContacts with the
// same status for pagination metadata.
func ListContactsPage(ctx context.Context, db *gorm.DB, status domain.ContactStatus, offset, limit int) ([]domain.Contact, error) {
	out := []domain.Contact{}
	q := db.WithContext(ctx).Order("created_at desc, id asc").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListUnreadContacts returns every unread contact newest first.
func ListUnreadContacts(ctx context.Context, db *gorm.DB) ([]domain.Contact, error) {
	out := []domain.Contact{}
	err := db.WithContext(ctx).
		Where("is_read = ?", false).
		Order("created_at desc, id asc").
		Find(&out).Error
	return out, err
}

// GetContact fetches one contact by id.
func GetContact(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateContact applies the given column values and returns the fresh row.
func UpdateContact(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.Contact, error) {
	res := db.WithContext(ctx).Model(&domain.Contact{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetContact(ctx, db, id)
}

// DeleteContact removes a contact row.
func DeleteContact(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
