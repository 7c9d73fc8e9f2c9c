package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpd/internal/pkg/clock"
	"github.com/shandysiswandi/otpd/internal/pkg/config"
	"github.com/shandysiswandi/otpd/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpd/internal/pkg/hash"
	"github.com/shandysiswandi/otpd/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"github.com/shandysiswandi/otpd/internal/pkg/jwt"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/mail"
	"github.com/shandysiswandi/otpd/internal/pkg/messaging"
	"github.com/shandysiswandi/otpd/internal/pkg/router"
	"github.com/shandysiswandi/otpd/internal/pkg/uid"
	"github.com/shandysiswandi/otpd/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	argon2id  hash.Hash
	sealer    keywrap.Sealer
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
