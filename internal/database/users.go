package database

import (
	"errors"

	"gorm.io/gorm"

	"stayspot/server/internal/models"
)

func (d *Database) GetUser(id uint) (*models.User, error) {
	var user models.User
	err := d.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) CreateUser(user *models.User) error {
	return d.db.Create(user).Error
}

// PromoteToLandlord upgrades a plain user after their first listing.
// Moderators keep their role.
func PromoteToLandlord(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleUser).
		Update("role", models.RoleLandlord).Error
}

// DeactivateUser marks the user inactive and soft-disables all their
// listings, so they drop out of search until reactivated.
func (d *Database) DeactivateUser(id uint) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Listing{}).Where("user_id = ?", id).
			Update("status", false).Error
	})
}
