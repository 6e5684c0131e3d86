package app

import (
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/database"
	"github.com/tech-arch1tect/authkit/internal/options"
	"github.com/tech-arch1tect/authkit/server"
	"github.com/tech-arch1tect/authkit/services/auth"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/jwt"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/mail"
	"github.com/tech-arch1tect/authkit/services/passwordreset"
	"github.com/tech-arch1tect/authkit/services/refreshtoken"
	"github.com/tech-arch1tect/authkit/services/user"
	"github.com/tech-arch1tect/authkit/services/verification"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// AuthModels are the gorm models the engine persists; pass them to the
// database layer for auto-migration alongside any application models.
func AuthModels() []any {
	return []any{
		&user.User{},
		&verification.VerificationToken{},
		&refreshtoken.RefreshToken{},
		&passwordreset.PasswordResetOtp{},
		&passwordreset.PasswordResetValidation{},
	}
}

// New assembles an application from the enabled features. Auth implies the
// database; mail wires the notifier interfaces the engine consumes.
func New(opts ...options.Option) *App {
	cfg := &options.Options{}
	for _, opt := range opts {
		opt(cfg)
	}

	application := &App{}

	fxOptions := []fx.Option{
		config.NewProvider(cfg.Config),
		logging.Module,
	}

	if cfg.EnableDatabase || cfg.EnableAuth {
		models := cfg.DatabaseModels
		if cfg.EnableAuth {
			models = append(models, AuthModels()...)
		}
		fxOptions = append(fxOptions,
			fx.Supply(database.WithModels(models...)),
			database.Module,
		)
	}

	if cfg.EnableAuth {
		fxOptions = append(fxOptions,
			hashing.Options,
			jwt.Options,
			user.Options,
			verification.Options,
			refreshtoken.Options,
			passwordreset.Options,
			auth.Options,
		)
	}

	if cfg.EnableMail {
		fxOptions = append(fxOptions,
			mail.Module,
			fx.Provide(func(svc *mail.Service) auth.Notifier { return svc }),
			fx.Provide(func(svc *mail.Service) passwordreset.Notifier { return svc }),
		)
	}

	if cfg.EnableServer {
		fxOptions = append(fxOptions, server.NewProvider())
	}

	for _, extra := range cfg.ExtraFxOptions {
		if fxOpt, ok := extra.(fx.Option); ok {
			fxOptions = append(fxOptions, fxOpt)
		}
	}

	fxOptions = append(fxOptions, fx.Invoke(func(
		c *config.Config,
		logger *logging.Service,
		populated populatedDeps,
	) {
		application.config = c
		application.logger = logger
		application.db = populated.DB
		application.server = populated.Server
		application.authSvc = populated.Auth
	}))

	application.fx = fx.New(fxOptions...)
	return application
}

type populatedDeps struct {
	fx.In
	DB     *gorm.DB       `optional:"true"`
	Server *server.Server `optional:"true"`
	Auth   *auth.Service  `optional:"true"`
}
