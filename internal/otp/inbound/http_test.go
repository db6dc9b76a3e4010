package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	sendIn   usecase.SendOTPInput
	verifyIn usecase.VerifyOTPInput
	err      error
}

func (f *fakeUC) SendOTP(_ context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error) {
	f.sendIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SendOTPOutput{ExpiresIn: 600}, nil
}

func (f *fakeUC) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	f.verifyIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.VerifyOTPOutput{Verified: true}, nil
}

func serve(t *testing.T, uc *fakeUC, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	ro := router.NewRouter(router.Config{UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(ro, uc)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:40000"
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestHTTPEndpoint_Send(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &fakeUC{}
		rec, body := serve(t, uc, "/api/v1/otp/send", `{"phone":"9998887776"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OTP sent successfully", body["message"])
		assert.Equal(t, map[string]any{"expires_in": float64(600)}, body["data"])
		assert.Equal(t, usecase.SendOTPInput{Source: "203.0.113.7", Phone: "9998887776"}, uc.sendIn)
	})

	t.Run("rate limited", func(t *testing.T) {
		uc := &fakeUC{err: goerror.NewTooManyRequest("Please wait 45 seconds before requesting new OTP", 45)}
		rec, body := serve(t, uc, "/api/v1/otp/send", `{"phone":"9998887776"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "45", rec.Header().Get("Retry-After"))
		assert.Equal(t, "Please wait 45 seconds before requesting new OTP", body["message"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, _ := serve(t, &fakeUC{}, "/api/v1/otp/send", `{"phone":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPEndpoint_Verify(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &fakeUC{}
		rec, body := serve(t, uc, "/api/v1/otp/verify", `{"phone":"9998887776","otp":"123456"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OTP verified successfully", body["message"])
		assert.Equal(t, usecase.VerifyOTPInput{Source: "203.0.113.7", Phone: "9998887776", Code: "123456"}, uc.verifyIn)
	})

	t.Run("mismatch", func(t *testing.T) {
		uc := &fakeUC{err: goerror.NewBusinessWithFields("Invalid OTP. 2 attempts remaining.", goerror.CodeRejected, "remaining_attempts", "2")}
		rec, body := serve(t, uc, "/api/v1/otp/verify", `{"phone":"9998887776","otp":"000000"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{"remaining_attempts": "2"}, body["error"])
		assert.Equal(t, "ERROR_CODE_REJECTED", body["code"])
	})
}
