package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/approval"
	approvaldm "github.com/opsdesk/ops-management/internal/core/datamodel/approval"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(req *approval.Request) error {
	dm := toDataModel(req)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	req.ID = dm.ID
	req.CreatedAt = dm.CreatedAt
	req.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *Repository) GetByID(id int64) (*approval.Request, error) {
	var dm approvaldm.ApprovalRequest
	if err := r.db.First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrApprovalNotFound
		}
		return nil, err
	}
	return toDomain(&dm), nil
}

func (r *Repository) ListAll(limit, offset int) ([]*approval.Request, error) {
	var dms []approvaldm.ApprovalRequest
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(dms), nil
}

func (r *Repository) ListByRequester(userID int64, limit, offset int) ([]*approval.Request, error) {
	var dms []approvaldm.ApprovalRequest
	err := r.db.Where("requester_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(dms), nil
}

func (r *Repository) ListVisibleTo(userID int64, limit, offset int) ([]*approval.Request, error) {
	var dms []approvaldm.ApprovalRequest
	err := r.db.Where("requester_id = ? OR approver_id = ?", userID, userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(dms), nil
}

// Resolve flips a PENDING row to its terminal status. The status predicate in
// the WHERE clause makes concurrent resolvers race on the database: exactly
// one update reports an affected row.
func (r *Repository) Resolve(id int64, status approval.Status, approverID int64, comments string) (bool, error) {
	updates := map[string]interface{}{
		"status":      string(status),
		"approver_id": approverID,
		"updated_at":  time.Now(),
	}
	if comments != "" {
		updates["comments"] = comments
	}

	result := r.db.Model(&approvaldm.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, string(approval.StatusPending)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toDataModel(req *approval.Request) *approvaldm.ApprovalRequest {
	return &approvaldm.ApprovalRequest{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		ApproverID:  req.ApproverID,
		Status:      string(req.Status),
		SubjectType: string(req.SubjectType),
		SubjectID:   req.SubjectID,
		Comments:    req.Comments,
	}
}

func toDomain(dm *approvaldm.ApprovalRequest) *approval.Request {
	return &approval.Request{
		ID:          dm.ID,
		RequesterID: dm.RequesterID,
		ApproverID:  dm.ApproverID,
		Status:      approval.Status(dm.Status),
		SubjectType: approval.SubjectType(dm.SubjectType),
		SubjectID:   dm.SubjectID,
		Comments:    dm.Comments,
		CreatedAt:   dm.CreatedAt,
		UpdatedAt:   dm.UpdatedAt,
	}
}

func toDomainSlice(dms []approvaldm.ApprovalRequest) []*approval.Request {
	out := make([]*approval.Request, 0, len(dms))
	for i := range dms {
		out = append(out, toDomain(&dms[i]))
	}
	return out
}
