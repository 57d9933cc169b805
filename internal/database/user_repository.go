package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/pkg/models"
)

// UserRepository handles database operations for users.
type UserRepository struct{}

// NewUserRepository creates a new repository instance.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := DB.Get(&user, rebind("SELECT * FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, corerr.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// GetByTelegramID returns a user by their Telegram chat identity, the
// lookup the bot transport performs on every incoming update.
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := DB.Get(&user, rebind("SELECT * FROM users WHERE telegram_id = ?"), telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, corerr.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %v", err)
	}
	return &user, nil
}

// GetAll returns all users.
func (r *UserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, "SELECT * FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	return users, nil
}

// Create inserts a new user. The caller mints the string ID (a UUID)
// before calling.
func (r *UserRepository) Create(user *models.User) error {
	query := rebind(`
		INSERT INTO users (id, telegram_id, username, first_name, last_name, is_admin, current_level_id, current_category_id, notification_enabled, notification_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := DB.Exec(
		query,
		user.ID, user.TelegramID, user.Username, user.FirstName, user.LastName, user.IsAdmin,
		user.CurrentLevelID, user.CurrentCategoryID, user.NotificationEnabled, user.NotificationHour,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

// Update modifies user profile and notification settings.
func (r *UserRepository) Update(user *models.User) error {
	query := rebind(`
		UPDATE users SET
			username = ?,
			first_name = ?,
			last_name = ?,
			is_admin = ?,
			notification_enabled = ?,
			notification_hour = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	_, err := DB.Exec(
		query,
		user.Username, user.FirstName, user.LastName, user.IsAdmin,
		user.NotificationEnabled, user.NotificationHour, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	return nil
}

// UpdateCurriculumPointer advances a user's current level/category grid
// position, the state internal/curriculum's level walker reads.
// complete_learn writes it only when the words just learned rank past
// the current pointer.
func (r *UserRepository) UpdateCurriculumPointer(userID string, levelID, categoryID *int64) error {
	query := rebind("UPDATE users SET current_level_id = ?, current_category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?")
	_, err := DB.Exec(query, levelID, categoryID, userID)
	if err != nil {
		return fmt.Errorf("failed to update curriculum pointer: %v", err)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(id string) error {
	_, err := DB.Exec(rebind("DELETE FROM users WHERE id = ?"), id)
	return err
}

// GetAdminUsers returns all admin users.
func (r *UserRepository) GetAdminUsers() ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, "SELECT * FROM users WHERE is_admin = true")
	if err != nil {
		return nil, fmt.Errorf("failed to get admin users: %v", err)
	}
	return users, nil
}

// GetUsersForNotification returns users with notifications enabled whose
// configured hour matches, the set internal/reminder ticks through.
func (r *UserRepository) GetUsersForNotification(hour int) ([]models.User, error) {
	var users []models.User
	query := rebind("SELECT * FROM users WHERE notification_enabled = true AND notification_hour = ?")
	err := DB.Select(&users, query, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}
