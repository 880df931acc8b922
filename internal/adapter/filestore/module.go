package filestore

import (
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// Module provides the local object store.
var Module = fx.Provide(newObjectStore)

func newObjectStore(cfg *config.Config) (repository.ObjectStore, error) {
	return New(cfg.UploadDir, cfg.MaxUploadBytes)
}
