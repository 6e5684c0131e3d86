package authkit

import (
	"github.com/tech-arch1tect/authkit/app"
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/internal/options"
)

type App = app.App

func New(opts ...options.Option) *App {
	return app.New(opts...)
}

func WithConfig(cfg *config.Config) options.Option {
	return options.WithConfig(cfg)
}

func WithDatabase(models ...any) options.Option {
	return options.WithDatabase(models...)
}

func WithAuth() options.Option {
	return options.WithAuth()
}

func WithMail() options.Option {
	return options.WithMail()
}

func WithServer() options.Option {
	return options.WithServer()
}

func WithFxOptions(fxOpts ...any) options.Option {
	return options.WithFxOptions(fxOpts...)
}
