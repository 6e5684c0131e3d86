package user

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserStore(db *gorm.DB) *Store {
	return NewStore(db)
}

var Options = fx.Options(
	fx.Provide(ProvideUserStore),
)
