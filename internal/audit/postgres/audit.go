package postgres

import (
	"gorm.io/gorm"

	"github.com/opsdesk/ops-management/internal/audit"
	auditdm "github.com/opsdesk/ops-management/internal/core/datamodel/audit"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(e *audit.Entry) error {
	dm := auditdm.AuditLog{
		UserID:    e.UserID,
		UserEmail: e.UserEmail,
		Action:    e.Action,
		ModelName: e.ModelName,
		ObjectID:  e.ObjectID,
		Details:   e.Details,
		Timestamp: e.Timestamp,
	}
	if err := r.db.Create(&dm).Error; err != nil {
		return err
	}
	e.ID = dm.ID
	return nil
}

func (r *Repository) List(f audit.Filter) ([]*audit.Entry, error) {
	query := r.db.Model(&auditdm.AuditLog{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.ModelName != "" {
		query = query.Where("model_name = ?", f.ModelName)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}

	var dms []auditdm.AuditLog
	err := query.Order("timestamp DESC").Limit(f.Limit).Offset(f.Offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*audit.Entry, 0, len(dms))
	for i := range dms {
		dm := dms[i]
		out = append(out, &audit.Entry{
			ID:        dm.ID,
			UserID:    dm.UserID,
			UserEmail: dm.UserEmail,
			Action:    dm.Action,
			ModelName: dm.ModelName,
			ObjectID:  dm.ObjectID,
			Details:   dm.Details,
			Timestamp: dm.Timestamp,
		})
	}
	return out, nil
}
