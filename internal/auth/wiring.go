package auth

import (
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/returns"
	"github.com/retoro-app/retoro-backend/internal/sessions"
	"github.com/retoro-app/retoro-backend/internal/settings"
	"github.com/retoro-app/retoro-backend/internal/users"
)

// RepoFactories holds one factory per repository the auth service touches.
type RepoFactories struct {
	Users    UserRepoFactory
	Sessions SessionRepoFactory
	Settings SettingsRepoFactory
	Items    ItemRepoFactory
	Tokens   TokenRepoFactory
}

// GormFactories builds repo factories bound to the base connection. Each
// factory rebinds its repository to tx when one is supplied so the whole
// merge path can run inside a single transaction.
func GormFactories(base *gorm.DB) RepoFactories {
	userRepo := users.NewRepository(base)
	sessionRepo := sessions.NewRepository(base)
	settingsRepo := settings.NewRepository(base)
	itemRepo := returns.NewRepository(base)
	tokenRepo := NewTokenRepository(base)

	return RepoFactories{
		Users: func(tx *gorm.DB) userRepository {
			if tx != nil {
				return userRepo.WithTx(tx)
			}
			return userRepo
		},
		Sessions: func(tx *gorm.DB) sessionRepository {
			if tx != nil {
				return sessionRepo.WithTx(tx)
			}
			return sessionRepo
		},
		Settings: func(tx *gorm.DB) settingsRepository {
			if tx != nil {
				return settingsRepo.WithTx(tx)
			}
			return settingsRepo
		},
		Items: func(tx *gorm.DB) returnItemRepository {
			if tx != nil {
				return itemRepo.WithTx(tx)
			}
			return itemRepo
		},
		Tokens: func(tx *gorm.DB) tokenRepository {
			if tx != nil {
				return tokenRepo.WithTx(tx)
			}
			return tokenRepo
		},
	}
}
