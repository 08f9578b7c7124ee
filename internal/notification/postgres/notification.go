package postgres

import (
	"time"

	"gorm.io/gorm"

	notificationdm "github.com/opsdesk/ops-management/internal/core/datamodel/notification"
	"github.com/opsdesk/ops-management/internal/notification"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(n *notification.Notification) error {
	dm := notificationdm.Notification{
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Link:        n.Link,
		IsRead:      n.IsRead,
	}
	if err := r.db.Create(&dm).Error; err != nil {
		return err
	}
	n.ID = dm.ID
	n.CreatedAt = dm.CreatedAt
	return nil
}

func (r *Repository) ListByRecipient(userID int64, limit, offset int) ([]*notification.Notification, error) {
	var dms []notificationdm.Notification
	err := r.db.Where("recipient_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*notification.Notification, 0, len(dms))
	for i := range dms {
		out = append(out, toDomain(&dms[i]))
	}
	return out, nil
}

func (r *Repository) MarkRead(id, userID int64) (bool, error) {
	result := r.db.Model(&notificationdm.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) MarkAllRead(userID int64) (int64, error) {
	result := r.db.Model(&notificationdm.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *Repository) CountUnread(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&notificationdm.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func toDomain(dm *notificationdm.Notification) *notification.Notification {
	return &notification.Notification{
		ID:          dm.ID,
		RecipientID: dm.RecipientID,
		Title:       dm.Title,
		Message:     dm.Message,
		Link:        dm.Link,
		IsRead:      dm.IsRead,
		CreatedAt:   dm.CreatedAt,
	}
}
