package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/adapter/memory"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newCapabilities(profiles *testhelpers.ProfileRepositoryStub, adminEmails ...string) *CapabilityService {
	return NewCapabilityService(profiles, memory.NewCapabilityCache(time.Minute), &config.Config{AdminEmails: adminEmails}, discardLogger())
}

func activeProfile(email string) model.Profile {
	return model.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash:correct horse",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		IsActive:     true,
	}
}
