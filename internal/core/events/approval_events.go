package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeApprovalCreated  = "approval.created"
	EventTypeApprovalResolved = "approval.resolved"
)

type ApprovalCreatedEvent struct {
	BaseEvent
	ApprovalID    int64  `json:"approval_id"`
	RequesterID   int64  `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	ApproverID    *int64 `json:"approver_id,omitempty"`
	SubjectType   string `json:"subject_type"`
	SubjectID     int64  `json:"subject_id"`
}

func NewApprovalCreatedEvent(approvalID, requesterID int64, requesterName string, approverID *int64, subjectType string, subjectID int64) *ApprovalCreatedEvent {
	return &ApprovalCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeApprovalCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"approval_id":  approvalID,
				"requester_id": requesterID,
				"subject_type": subjectType,
				"subject_id":   subjectID,
			},
		},
		ApprovalID:    approvalID,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		ApproverID:    approverID,
		SubjectType:   subjectType,
		SubjectID:     subjectID,
	}
}

type ApprovalResolvedEvent struct {
	BaseEvent
	ApprovalID  int64  `json:"approval_id"`
	RequesterID int64  `json:"requester_id"`
	ApproverID  int64  `json:"approver_id"`
	Status      string `json:"status"`
	SubjectType string `json:"subject_type"`
	SubjectID   int64  `json:"subject_id"`
}

func NewApprovalResolvedEvent(approvalID, requesterID, approverID int64, status, subjectType string, subjectID int64) *ApprovalResolvedEvent {
	return &ApprovalResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeApprovalResolved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"approval_id":  approvalID,
				"requester_id": requesterID,
				"approver_id":  approverID,
				"status":       status,
			},
		},
		ApprovalID:  approvalID,
		RequesterID: requesterID,
		ApproverID:  approverID,
		Status:      status,
		SubjectType: subjectType,
		SubjectID:   subjectID,
	}
}
