package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/tansanbot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByTelegramID returns a user by their Telegram ID, or ErrNotFound.
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := DB.Get(&user, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, created_at, updated_at
		FROM users WHERE telegram_id = $1
	`, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Create inserts a new user record
func (r *UserRepository) Create(user *models.User) error {
	_, err := DB.Exec(`
		INSERT INTO users (telegram_id, username, first_name, last_name, is_admin, notification_enabled, notification_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.TelegramID, user.Username, user.FirstName, user.LastName,
		user.IsAdmin, user.NotificationEnabled, user.NotificationHour)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetAll returns every known user.
func (r *UserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, created_at, updated_at
		FROM users ORDER BY telegram_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// GetUsersForNotification returns users who want a goal reminder at the given hour.
func (r *UserRepository) GetUsersForNotification(hour int) ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, created_at, updated_at
		FROM users
		WHERE notification_enabled = true AND notification_hour = $1
	`, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

// SetNotification updates a user's reminder preferences.
func (r *UserRepository) SetNotification(telegramID int64, enabled bool, hour int) error {
	_, err := DB.Exec(`
		UPDATE users SET notification_enabled = $1, notification_hour = $2, updated_at = CURRENT_TIMESTAMP
		WHERE telegram_id = $3
	`, enabled, hour, telegramID)
	return err
}
