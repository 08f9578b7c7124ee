package approval

type CreateDTO struct {
	SubjectType string `json:"subject_type"`
	SubjectID   int64  `json:"subject_id"`
	ApproverID  *int64 `json:"approver_id,omitempty"`
	Comments    string `json:"comments,omitempty"`
}

type ResolveDTO struct {
	Action   string `json:"action"`
	Comments string `json:"comments,omitempty"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d CreateDTO) Validate() error {
	if d.SubjectType == "" {
		return ValidationError{Msg: "subject_type is required"}
	}
	if d.SubjectID <= 0 {
		return ValidationError{Msg: "subject_id is required"}
	}
	return nil
}

func (d ResolveDTO) Validate() error {
	if d.Action == "" {
		return ValidationError{Msg: "action is required"}
	}
	return nil
}
