package options

import (
	"github.com/tech-arch1tect/authkit/config"
)

type Options struct {
	Config         *config.Config
	EnableDatabase bool
	DatabaseModels []any
	EnableAuth     bool
	EnableMail     bool
	EnableServer   bool
	ExtraFxOptions []any
}

type Option func(*Options)

func WithConfig(cfg *config.Config) Option {
	return func(opts *Options) {
		opts.Config = cfg
	}
}

func WithDatabase(models ...any) Option {
	return func(opts *Options) {
		opts.EnableDatabase = true
		opts.DatabaseModels = models
	}
}

func WithAuth() Option {
	return func(opts *Options) {
		opts.EnableAuth = true
		opts.EnableDatabase = true
	}
}

func WithMail() Option {
	return func(opts *Options) {
		opts.EnableMail = true
	}
}

func WithServer() Option {
	return func(opts *Options) {
		opts.EnableServer = true
	}
}

func WithFxOptions(fxOpts ...any) Option {
	return func(opts *Options) {
		opts.ExtraFxOptions = append(opts.ExtraFxOptions, fxOpts...)
	}
}
