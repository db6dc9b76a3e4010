package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for issuing and verifying codes.
type HTTPEndpoint struct {
	uc uc
}

// Send issues a code to a phone number.
// @Summary Send OTP
// @Description Generates a one-time code and delivers it to the phone. Throttled per source address and per phone.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Invalid phone number"
// @Failure 429 {object} router.errorResponse "Rate limited"
// @Failure 500 {object} router.errorResponse "Failed to send OTP"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Source: r.ClientIP(),
		Phone:  req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// Verify checks a submitted code.
// @Summary Verify OTP
// @Description Verifies the latest active code of the phone. Wrong codes count towards a lockout.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Code verified"
// @Failure 400 {object} router.errorResponse "Invalid, expired or unknown code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many wrong attempts or rate limited"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Source: r.ClientIP(),
		Phone:  req.Phone,
		Code:   req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Verified: resp.Verified}, nil
}
