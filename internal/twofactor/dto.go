package twofactor

type ConfirmDTO struct {
	OTP string `json:"otp"`
}

type DisableDTO struct {
	Password string `json:"password"`
}

type UpdateModeDTO struct {
	Mode string `json:"two_factor_mode"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d ConfirmDTO) Validate() error {
	if d.OTP == "" {
		return ValidationError{Msg: "otp is required"}
	}
	return nil
}

func (d DisableDTO) Validate() error {
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d UpdateModeDTO) Validate() error {
	if d.Mode == "" {
		return ValidationError{Msg: "two_factor_mode is required"}
	}
	return nil
}
