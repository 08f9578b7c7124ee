package leave

import "time"

const dateLayout = "2006-01-02"

type ApplyDTO struct {
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason,omitempty"`
	ApproverID *int64 `json:"approver_id,omitempty"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d ApplyDTO) Validate() error {
	if d.LeaveType == "" {
		return ValidationError{Msg: "leave_type is required"}
	}
	if !Type(d.LeaveType).Valid() {
		return ValidationError{Msg: "unknown leave_type"}
	}
	start, err := d.Start()
	if err != nil {
		return ValidationError{Msg: "start_date must be YYYY-MM-DD"}
	}
	end, err := d.End()
	if err != nil {
		return ValidationError{Msg: "end_date must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return ValidationError{Msg: "end_date must not be before start_date"}
	}
	return nil
}

func (d ApplyDTO) Start() (time.Time, error) {
	return time.Parse(dateLayout, d.StartDate)
}

func (d ApplyDTO) End() (time.Time, error) {
	return time.Parse(dateLayout, d.EndDate)
}
