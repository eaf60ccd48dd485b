package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govjobalert/govjobalert/internal/models"
)

// SeedCatalog inserts categories and locations, leaving rows whose slug
// already exists untouched. It returns how many rows of each were inserted.
func SeedCatalog(ctx context.Context, db *gorm.DB, categories []models.Category, locations []models.Location) (int64, int64, error) {
	var insertedCategories, insertedLocations int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipExisting := clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}
		if len(categories) > 0 {
			res := tx.Clauses(skipExisting).Create(&categories)
			if res.Error != nil {
				return fmt.Errorf("seed categories: %w", res.Error)
			}
			insertedCategories = res.RowsAffected
		}
		if len(locations) > 0 {
			res := tx.Clauses(skipExisting).Create(&locations)
			if res.Error != nil {
				return fmt.Errorf("seed locations: %w", res.Error)
			}
			insertedLocations = res.RowsAffected
		}
		return nil
	})
	return insertedCategories, insertedLocations, err
}
