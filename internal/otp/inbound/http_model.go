package inbound

type SendRequest struct {
	Phone string `json:"phone"`
}

type SendResponse struct {
	ExpiresIn int `json:"expires_in"`
}

func (SendResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type VerifyResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyResponse) Message() string {
	return "OTP verified successfully"
}
