package database

import (
	"errors"
	"time"

	"lark/internal/domain"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

func GetUserByEmail(email string) (domain.User, error) {
	if DB == nil {
		return domain.User{}, errors.New("database not initialised")
	}

	var user domain.User
	if err := DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func GetUserFromId(id uint) (domain.User, error) {
	if DB == nil {
		return domain.User{}, errors.New("database not initialised")
	}

	var user domain.User
	if err := DB.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func EmailOrUsernameTaken(email, username string) (bool, error) {
	if DB == nil {
		return false, errors.New("database not initialised")
	}

	var count int64
	err := DB.Model(&domain.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

// CreateUser persists a new account. The very first account becomes the
// admin, matching how the site is bootstrapped.
func CreateUser(user *domain.User) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	var existing domain.User
	if err := DB.Select("id").Take(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		user.Role = "admin"
	} else if err != nil {
		return err
	} else {
		user.Role = "user"
	}

	return DB.Create(user).Error
}

func UpdateUserPassword(userID uint, hashedPassword string) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	return DB.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}

// CreatePasswordReset stores the hashed reset token for a user.
func CreatePasswordReset(userID uint, tokenHash string, ttl time.Duration) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	reset := domain.PasswordReset{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	return DB.Create(&reset).Error
}

// ConsumePasswordReset marks a live reset token as used and returns the
// owning user id. Expired or already-used tokens return ErrUserNotFound.
func ConsumePasswordReset(tokenHash string) (uint, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	var reset domain.PasswordReset
	err := DB.Where("token_hash = ? AND expires_at > ? AND used_at IS NULL", tokenHash, time.Now().UTC()).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	now := time.Now().UTC()
	if err := DB.Model(&reset).Update("used_at", &now).Error; err != nil {
		return 0, err
	}

	return reset.UserID, nil
}
