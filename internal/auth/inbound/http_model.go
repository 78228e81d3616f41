package inbound

import "net/http"

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRequest struct {
	OTP string `json:"otp"`
}

// FlowResponse is the body of every auth endpoint: where the client stands
// and what it should do next.
type FlowResponse struct {
	State string `json:"state"`
	Step  string `json:"step"`
	Email string `json:"email,omitempty"`

	message string
	cookies []*http.Cookie
}

func (r FlowResponse) Message() string {
	if r.message == "" {
		return "request has been successfully"
	}
	return r.message
}

func (r FlowResponse) Cookies() []*http.Cookie { return r.cookies }
