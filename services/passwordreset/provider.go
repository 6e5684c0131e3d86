package passwordreset

import (
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/user"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvidePasswordResetService(db *gorm.DB, cfg *config.Config, logger *logging.Service, hasher *hashing.Service, users *user.Store) *Service {
	service := NewService(db, cfg, logger, hasher, users)

	if cfg.Auth.OtpCleanupInterval > 0 {
		service.StartCleanupWorker()
	}

	return service
}

type OptionalNotifier struct {
	fx.In
	Notifier Notifier `optional:"true"`
}

func WireNotifier(svc *Service, opt OptionalNotifier) {
	if svc != nil && opt.Notifier != nil {
		svc.SetNotifier(opt.Notifier)
	}
}

var Options = fx.Options(
	fx.Provide(ProvidePasswordResetService),
	fx.Invoke(WireNotifier),
)
