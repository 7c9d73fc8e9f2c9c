package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpd/internal/device"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.device.enabled") {
		if err := device.New(device.Dependency{
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			HMAC:        a.hmac,
			Argon2ID:    a.argon2id,
			Sealer:      a.sealer,
			Mailer:      a.mail,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module device", "error", err)
			os.Exit(1)
		}
	}
}
