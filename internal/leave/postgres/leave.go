package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/ops-management/internal"
	leavedm "github.com/opsdesk/ops-management/internal/core/datamodel/leave"
	"github.com/opsdesk/ops-management/internal/leave"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(l *leave.Leave) error {
	dm := leavedm.Leave{
		UserID:     l.UserID,
		LeaveType:  string(l.LeaveType),
		StartDate:  l.StartDate,
		EndDate:    l.EndDate,
		Reason:     l.Reason,
		Status:     l.Status,
		ApproverID: l.ApproverID,
	}
	if err := r.db.Create(&dm).Error; err != nil {
		return err
	}
	l.ID = dm.ID
	l.CreatedAt = dm.CreatedAt
	l.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *Repository) GetByID(id int64) (*leave.Leave, error) {
	var dm leavedm.Leave
	if err := r.db.First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveNotFound
		}
		return nil, err
	}
	return toDomain(&dm), nil
}

func (r *Repository) ListByUser(userID int64, limit, offset int) ([]*leave.Leave, error) {
	var dms []leavedm.Leave
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(dms), nil
}

func (r *Repository) ListAll(limit, offset int) ([]*leave.Leave, error) {
	var dms []leavedm.Leave
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(dms), nil
}

func (r *Repository) SetOutcome(id int64, status string, approverID int64) error {
	result := r.db.Model(&leavedm.Leave{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"approver_id": approverID,
		"updated_at":  time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrLeaveNotFound
	}
	return nil
}

func toDomain(dm *leavedm.Leave) *leave.Leave {
	return &leave.Leave{
		ID:         dm.ID,
		UserID:     dm.UserID,
		LeaveType:  leave.Type(dm.LeaveType),
		StartDate:  dm.StartDate,
		EndDate:    dm.EndDate,
		Reason:     dm.Reason,
		Status:     dm.Status,
		ApproverID: dm.ApproverID,
		CreatedAt:  dm.CreatedAt,
		UpdatedAt:  dm.UpdatedAt,
	}
}

func toDomainSlice(dms []leavedm.Leave) []*leave.Leave {
	out := make([]*leave.Leave, 0, len(dms))
	for i := range dms {
		out = append(out, toDomain(&dms[i]))
	}
	return out
}
