package store

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
)

// Watcher propagates changes made to the state file by another process
// into this process's slots. It is the counterpart of a browser storage
// event: when the SQLite files change on disk, rows written after our
// high-water mark are re-read and handed to the registered slots.
type Watcher struct {
	kv       *database.KVStore
	dbPath   string
	logger   zerolog.Logger
	debounce time.Duration

	mu        sync.Mutex
	slots     map[string]Slot
	highWater int64

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the database at dbPath. The watcher
// does nothing until Start is called.
func NewWatcher(kv *database.KVStore, dbPath string) *Watcher {
	return &Watcher{
		kv:       kv,
		dbPath:   dbPath,
		logger:   logging.GetLogger("store-watcher"),
		debounce: 250 * time.Millisecond,
		slots:    make(map[string]Slot),
	}
}

// Register binds a slot to the watcher. Changes to the slot's key made
// by another process will be adopted through Slot.AdoptRaw.
func (w *Watcher) Register(slots ...Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range slots {
		w.slots[s.Key()] = s
	}
}

// Start begins watching the state file. The initial high-water mark is
// the newest row stamp already in the table, so only writes made after
// this point are treated as external changes.
func (w *Watcher) Start(ctx context.Context) error {
	stamp, err := w.kv.LatestStamp()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to read initial high-water mark")
		return err
	}
	w.mu.Lock()
	w.highWater = stamp
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to create filesystem watcher")
		return err
	}
	// Watch the directory: the -wal file appears and disappears, and
	// watching a recreated file directly would silently go stale.
	dir := filepath.Dir(w.dbPath)
	if err := fsw.Add(dir); err != nil {
		w.logger.Error().Err(err).Str("dir", dir).Msg("Failed to watch state directory")
		fsw.Close()
		return err
	}
	w.fsw = fsw

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.run(runCtx)

	w.logger.Info().Str("dir", dir).Msg("Store watcher started")
	return nil
}

// Close stops the watcher and releases the filesystem watch
func (w *Watcher) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to close filesystem watcher")
		}
	}
	w.logger.Info().Msg("Store watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	// Debounce timer: SQLite touches the db and -wal files in bursts,
	// one re-scan per burst is enough.
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if !pending {
				debounce.Reset(w.debounce)
				pending = true
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Filesystem watcher error")

		case <-debounce.C:
			pending = false
			w.scan(ctx)
		}
	}
}

// relevant reports whether a filesystem event concerns the state file
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(event.Name)
	base := filepath.Base(w.dbPath)
	return name == base || name == base+"-wal"
}

// scan re-reads rows written after the high-water mark and routes them
// to the registered slots. Slots compare the payload against their own
// state, so rows this process wrote itself are adopted as no-ops.
func (w *Watcher) scan(ctx context.Context) {
	w.mu.Lock()
	since := w.highWater
	w.mu.Unlock()

	changed, latest, err := w.kv.ChangedSince(since)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to scan for external changes")
		return
	}
	if len(changed) == 0 {
		return
	}

	w.mu.Lock()
	w.highWater = latest
	targets := make(map[string]Slot, len(changed))
	for key := range changed {
		if slot, ok := w.slots[key]; ok {
			targets[key] = slot
		}
	}
	w.mu.Unlock()

	w.logger.Debug().Int("changed_rows", len(changed)).Int("registered", len(targets)).Msg("Adopting external changes")
	for key, slot := range targets {
		slot.AdoptRaw(ctx, changed[key])
	}
}
