package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/notification"
	"github.com/shandysiswandi/otpgate/internal/otp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.otp.enabled") {
		job, err := otp.New(otp.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Router:     a.router,
			Goroutine:  a.goroutine,
			Messaging:  a.messaging,
			SMS:        a.sms,
			Window:     a.window,
			Daily:      a.daily,
			Locker:     a.locker,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Location:   a.location,
			Validator:  a.validator,
		})
		if err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
		a.retention = job
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			SMS:        a.sms,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
