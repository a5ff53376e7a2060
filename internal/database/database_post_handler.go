package database

import (
	"errors"

	"lark/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

func GetPublishedPosts(page, pageSize int) ([]domain.Post, int64, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialised")
	}

	if pageSize <= 0 || pageSize > 50 {
		pageSize = 10
	}
	if page < 1 {
		page = 1
	}

	query := DB.Model(&domain.Post{}).Where("publish = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []domain.Post
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func GetPostFromId(id uint) (domain.Post, error) {
	if DB == nil {
		return domain.Post{}, errors.New("database not initialised")
	}

	var post domain.Post
	err := DB.Where("id = ? AND publish = ?", id, true).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, err
	}
	return post, nil
}

func IncrementPostViews(id uint) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	return DB.Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// LikePost records one like per user and post. The unique index absorbs
// double-submits; only a first-time like bumps the post counter.
func LikePost(postID, userID uint) (bool, error) {
	if DB == nil {
		return false, errors.New("database not initialised")
	}

	like := domain.PostLike{PostID: postID, UserID: userID}
	result := DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&like)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	err := DB.Model(&domain.Post{}).
		Where("id = ?", postID).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	return true, err
}

func CreateChatMessage(message *domain.ChatMessage) error {
	if DB == nil {
		return errors.New("database not initialised")
	}
	return DB.Create(message).Error
}

func GetRecentChatMessages(limit int) ([]domain.ChatMessage, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []domain.ChatMessage
	err := DB.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func CreateContactMessage(message *domain.ContactMessage) error {
	if DB == nil {
		return errors.New("database not initialised")
	}
	return DB.Create(message).Error
}
