package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

// MigrationCount reports what MigrateLegacyText did for one table.
type MigrationCount struct {
	Migrated int
	Skipped  int
}

// MigrationReport is the per-table outcome of MigrateLegacyText.
type MigrationReport struct {
	Categories MigrationCount
	Projects   MigrationCount
}

// MigrateLegacyText rewrites rows whose bilingual columns still hold a plain
// string so that the string fills both languages. Rows that are already
// bilingual are skipped. Each table is migrated in its own transaction.
func MigrateLegacyText(ctx context.Context, db *gorm.DB) (MigrationReport, error) {
	var rep MigrationReport

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cats []domain.Category
		if err := tx.Find(&cats).Error; err != nil {
			return err
		}
		for i := range cats {
			c := &cats[i]
			if !upgrade(&c.Name, c.Description) {
				rep.Categories.Skipped++
				continue
			}
			if err := tx.Model(&domain.Category{}).Where("id = ?", c.ID).
				Select("name", "description").Updates(c).Error; err != nil {
				return err
			}
			rep.Categories.Migrated++
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ps []domain.Project
		if err := tx.Find(&ps).Error; err != nil {
			return err
		}
		for i := range ps {
			p := &ps[i]
			if !upgrade(&p.Title, p.Description) {
				rep.Projects.Skipped++
				continue
			}
			if err := tx.Model(&domain.Project{}).Where("id = ?", p.ID).
				Select("title", "description").Updates(p).Error; err != nil {
				return err
			}
			rep.Projects.Migrated++
		}
		return nil
	})
	return rep, err
}

// upgrade converts legacy values in place and reports whether anything
// changed.
func upgrade(primary *multilingual.Text, optional *multilingual.Text) bool {
	changed := false
	if primary.IsLegacy() {
		*primary = primary.Upgrade()
		changed = true
	}
	if optional != nil && optional.IsLegacy() {
		*optional = optional.Upgrade()
		changed = true
	}
	return changed
}
