package auth

// LoginDTO is the transport shape for login requests. OTP is optional: the
// first round trip usually omits it and receives a 2FA challenge back.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

type SendOTPDTO struct {
	Email   string `json:"email"`
	Channel string `json:"channel"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d LoginDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d SendOTPDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	switch d.Channel {
	case "", "email", "sms":
		return nil
	}
	return ValidationError{Msg: "channel must be email or sms"}
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh is required"}
	}
	return nil
}
