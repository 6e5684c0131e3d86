package auth

import (
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/jwt"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/passwordreset"
	"github.com/tech-arch1tect/authkit/services/refreshtoken"
	"github.com/tech-arch1tect/authkit/services/user"
	"github.com/tech-arch1tect/authkit/services/verification"
	"go.uber.org/fx"
)

func ProvideAuthService(
	cfg *config.Config,
	logger *logging.Service,
	users *user.Store,
	hasher *hashing.Service,
	codec *jwt.Service,
	verificationSvc *verification.Service,
	refreshTokens *refreshtoken.Service,
	passwordReset *passwordreset.Service,
) *Service {
	return NewService(cfg, logger, users, hasher, codec, verificationSvc, refreshTokens, passwordReset)
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
	fx.Provide(ProvideAuthService),
	fx.Invoke(WireNotifier),
)
