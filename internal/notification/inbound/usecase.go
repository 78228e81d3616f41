package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) error
}
