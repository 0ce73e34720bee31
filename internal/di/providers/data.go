package providers

import (
	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/config"
	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/data/sqlite"
	"github.com/ManakRaj-7/AnonVerse/internal/localstate"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
)

// StoreHandle wraps the SQLite store for lifecycle management.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the local SQLite-backed data store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database opened", "path", cfg.DatabasePath())
	return &StoreHandle{Store: store}, nil
}

// ProvideDataService exposes the store as the data capability.
func ProvideDataService(i do.Injector) (data.Service, error) {
	return do.MustInvoke[*StoreHandle](i).Store, nil
}

// LocalStateHandle wraps the device state store for lifecycle management.
type LocalStateHandle struct {
	*localstate.Store
}

// Shutdown implements do.Shutdownable.
func (h *LocalStateHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideLocalState provides the device state store (guest-mode flag).
func ProvideLocalState(i do.Injector) (*LocalStateHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := localstate.Open(cfg.Data.Dir, log.Logger)
	if err != nil {
		return nil, err
	}
	return &LocalStateHandle{Store: store}, nil
}
