package notify

import (
	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/constants"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
	"github.com/formday/formday/internal/store"
)

// Permission is the user's standing decision about prayer alerts
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionStore persists the notification permission. Transitions
// happen only through explicit user action, never automatically.
type PermissionStore struct {
	slot   *store.Value[Permission]
	logger zerolog.Logger
}

// NewPermissionStore creates the permission store bound to the given kv store
func NewPermissionStore(kv *database.KVStore) *PermissionStore {
	return &PermissionStore{
		slot:   store.New(kv, constants.KeyNotifyPermission, PermissionDefault),
		logger: logging.GetLogger("notify-permission"),
	}
}

// Hydrate loads the stored permission
func (p *PermissionStore) Hydrate() error {
	return p.slot.Hydrate()
}

// Slots exposes the permission slot for store-watcher registration
func (p *PermissionStore) Slots() []store.Slot {
	return []store.Slot{p.slot}
}

// Current returns the standing permission
func (p *PermissionStore) Current() Permission {
	return p.slot.Get()
}

// Request grants the permission. A previous explicit denial stays in
// place: the user has to reset it first.
func (p *PermissionStore) Request() Permission {
	result := p.Current()
	if result == PermissionDenied {
		p.logger.Warn().Msg("Permission previously denied, not granting")
		return result
	}
	p.slot.Update(func(Permission) Permission { return PermissionGranted })
	p.logger.Info().Msg("Notification permission granted")
	return PermissionGranted
}

// Deny records an explicit denial
func (p *PermissionStore) Deny() {
	p.slot.Update(func(Permission) Permission { return PermissionDenied })
	p.logger.Info().Msg("Notification permission denied")
}

// Reset returns the permission to its undecided state
func (p *PermissionStore) Reset() {
	p.slot.Update(func(Permission) Permission { return PermissionDefault })
	p.logger.Info().Msg("Notification permission reset")
}
