package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/otp/inbound"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/mq"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/sms"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	pkgsms "github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/throttle"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

const (
	// DeliveryBroker publishes codes to the broker for the notification consumer.
	DeliveryBroker = "broker"
	// DeliverySMS sends codes to the SMS gateway inside the request.
	DeliverySMS = "sms"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	SMS        pkgsms.SMS                 `validate:"required"`
	Window     throttle.WindowCounter     `validate:"required"`
	Daily      throttle.DailyCounter      `validate:"required"`
	Locker     lock.Locker                `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Location   *time.Location             `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New wires the otp module and returns the retention job so the caller can stop it.
func New(dep Dependency) (*inbound.RetentionJob, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbOTP := db.NewDB(dep.DBConn, dep.Instrument)
	if dep.Config.GetBool("modules.otp.auto_migrate") {
		if err := dbOTP.Migrate(dep.Ctx); err != nil {
			return nil, fmt.Errorf("migrate otp schema: %w", err)
		}
	}

	var deliverer interface {
		Deliver(ctx context.Context, identity, message string) error
	}
	switch mode := dep.Config.GetString("modules.otp.delivery"); mode {
	case DeliveryBroker, "":
		deliverer = mq.NewMessaging(dep.Messaging, dep.Clock, dep.Instrument)
	case DeliverySMS:
		deliverer = sms.NewSMS(dep.SMS, dep.Instrument)
	default:
		return nil, fmt.Errorf("unsupported otp delivery mode %q", mode)
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbOTP,
		Deliverer:  deliverer,
		Window:     dep.Window,
		Daily:      dep.Daily,
		Locker:     dep.Locker,
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Location:   dep.Location,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	job := inbound.NewRetentionJob(uc, dep.Config.GetMinute("modules.otp.purge_interval_minutes"))
	dep.Goroutine.Go(dep.Ctx, "otp-retention", job.Run)

	return job, nil
}
