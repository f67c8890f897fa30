package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/maniartech/signals"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
	appsignals "github.com/formday/formday/internal/signals"
)

// Slot is the untyped surface a Value exposes to the store watcher.
type Slot interface {
	// Key returns the storage key the slot is bound to
	Key() string
	// AdoptRaw adopts a document written by another process
	AdoptRaw(ctx context.Context, raw []byte)
}

// Value is a named persisted slot holding one JSON-serializable value.
//
// The in-memory value starts as the caller-supplied default, is replaced
// exactly once by the stored document during Hydrate, and is written
// through on every subsequent update. Until hydration completes no
// durable write occurs, so the stored document can never be clobbered
// by the default.
type Value[T any] struct {
	kv       *database.KVStore
	key      string
	logger   zerolog.Logger
	changed  signals.Signal[T]
	hydrated *atomic.Bool

	mu      sync.Mutex
	current T
}

// New creates a persisted slot for key with the given default value.
// The slot is not usable for durable writes until Hydrate has run.
func New[T any](kv *database.KVStore, key string, defaultValue T) *Value[T] {
	return &Value[T]{
		kv:       kv,
		key:      key,
		logger:   logging.GetLogger("store").With().Str("key", key).Logger(),
		changed:  signals.NewSync[T](),
		hydrated: atomic.NewBool(false),
		current:  defaultValue,
	}
}

// Key returns the storage key the slot is bound to
func (v *Value[T]) Key() string {
	return v.key
}

// Loading reports whether the slot is still waiting for hydration
func (v *Value[T]) Loading() bool {
	return !v.hydrated.Load()
}

// Hydrate loads the stored document into memory. It runs at most once:
// subsequent calls are no-ops. A missing document keeps the default; a
// document that fails to parse is logged and treated as missing. Only a
// storage-reachability failure leaves the slot un-hydrated, so the call
// can be retried.
func (v *Value[T]) Hydrate() error {
	if v.hydrated.Load() {
		return nil
	}

	if err := v.kv.Ping(); err != nil {
		v.logger.Error().Err(err).Msg("Durable storage not reachable, hydration postponed")
		return fmt.Errorf("hydration of %q postponed: %w", v.key, err)
	}

	raw, found, err := v.kv.Get(v.key)
	if err != nil {
		// Treated like a missing document: the default stays in place.
		v.logger.Error().Err(err).Msg("Failed to read stored value, keeping default")
		v.hydrated.Store(true)
		return nil
	}

	if found {
		var stored T
		if err := json.Unmarshal(raw, &stored); err != nil {
			v.logger.Error().Err(err).Msg("Failed to parse stored value, keeping default")
		} else {
			v.mu.Lock()
			v.current = stored
			v.mu.Unlock()
			v.logger.Debug().Msg("Slot hydrated from durable storage")
		}
	}

	v.hydrated.Store(true)
	return nil
}

// Get returns a copy of the current value. The copy is detached from
// internal state, so callers can mutate it freely.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return deepCopy(v.current, v.logger)
}

// Update applies a functional update to the slot. The updater receives
// the previous value and returns the next one. After hydration the new
// value is written through to durable storage; write failures are
// logged, never surfaced. Before hydration the change stays in memory
// only, and a later Hydrate will replace it with the stored document.
func (v *Value[T]) Update(fn func(prev T) T) {
	v.mu.Lock()
	next := fn(deepCopy(v.current, v.logger))
	v.current = next
	v.mu.Unlock()

	if !v.hydrated.Load() {
		v.logger.Warn().Msg("Update before hydration completed, skipping durable write")
		v.notify(next, false)
		return
	}

	raw, err := json.Marshal(next)
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to serialize value for durable write")
	} else if err := v.kv.Set(v.key, raw); err != nil {
		v.logger.Error().Err(err).Msg("Failed to write value to durable storage")
	}

	v.notify(next, false)
}

// Subscribe registers a handler invoked with the new value after every
// local update and every adopted external change.
func (v *Value[T]) Subscribe(handler func(ctx context.Context, value T), key ...string) {
	if len(key) > 0 {
		v.changed.AddListener(handler, key[0])
	} else {
		v.changed.AddListener(handler)
	}
}

// AdoptRaw adopts a document another process wrote under this slot's
// key, overriding local state. A payload identical to the current value
// is ignored, as is a malformed one.
func (v *Value[T]) AdoptRaw(ctx context.Context, raw []byte) {
	v.mu.Lock()
	if current, err := json.Marshal(v.current); err == nil && bytes.Equal(current, raw) {
		v.mu.Unlock()
		return
	}

	var incoming T
	if err := json.Unmarshal(raw, &incoming); err != nil {
		v.mu.Unlock()
		v.logger.Error().Err(err).Msg("Failed to parse external change, keeping local state")
		return
	}
	v.current = incoming
	v.mu.Unlock()

	v.logger.Debug().Msg("Adopted external change")
	v.notify(incoming, true)
}

func (v *Value[T]) notify(value T, external bool) {
	ctx := context.Background()
	v.changed.Emit(ctx, value)
	appsignals.EmitSlotChanged(ctx, v.key, external)
}

// deepCopy detaches a value from internal state via a JSON round trip.
// Values held in slots are JSON-serializable by contract, so a failure
// here only means the caller shares backing arrays with the slot.
func deepCopy[T any](value T, logger zerolog.Logger) T {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to serialize value for copy")
		return value
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Error().Err(err).Msg("Failed to rebuild value copy")
		return value
	}
	return out
}
