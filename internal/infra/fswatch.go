package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gammazero/deque"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

const watchErrorBuffer = 16

// FSWatcher implements domain.EventSource over fsnotify.
// Events are moved into an unbounded queue by a forwarding goroutine,
// so the OS watcher never blocks on a slow consumer.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	usersDir string
	user     string
	logger   *zap.Logger

	mu    sync.Mutex
	queue *deque.Deque[domain.FsChangeEvent]

	ready chan struct{}
	errs  chan error

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFSWatcher watches every account dir plus usersDir itself, so accounts
// created later are picked up. With user set only "<user>-user" is followed.
func NewFSWatcher(usersDir string, accountDirs []string, user string, logger *zap.Logger) (*FSWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: create file watcher: %v", domain.ErrFatal, err)
	}

	for _, dir := range append([]string{usersDir}, accountDirs...) {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("%w: watch %s: %v", domain.ErrFatal, dir, err)
		}
	}

	w := &FSWatcher{
		watcher:  watcher,
		usersDir: filepath.Clean(usersDir),
		user:     user,
		logger:   logger,
		queue:    deque.New[domain.FsChangeEvent](),
		ready:    make(chan struct{}, 1),
		errs:     make(chan error, watchErrorBuffer),
	}

	w.wg.Add(1)
	go w.forward()

	logger.Info("watching Spotify data directory",
		zap.String("users_dir", usersDir),
		zap.Strings("accounts", accountDirs))
	return w, nil
}

func (w *FSWatcher) forward() {
	defer w.wg.Done()
	defer close(w.errs)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.followNewAccount(event)
			w.push(domain.FsChangeEvent{Paths: []string{event.Name}, Op: event.Op.String()})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				w.logger.Warn("dropping watcher error", zap.Error(err))
			}
		}
	}
}

// followNewAccount adds a watch on account directories created after startup.
func (w *FSWatcher) followNewAccount(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || filepath.Dir(event.Name) != w.usersDir {
		return
	}
	if !IsAccountDir(filepath.Base(event.Name), w.user) {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(event.Name); err != nil {
		w.logger.Warn("failed to watch new account directory",
			zap.String("path", event.Name), zap.Error(err))
		return
	}
	w.logger.Info("watching new account directory", zap.String("path", event.Name))
}

func (w *FSWatcher) push(ev domain.FsChangeEvent) {
	w.mu.Lock()
	w.queue.PushBack(ev)
	w.mu.Unlock()

	select {
	case w.ready <- struct{}{}:
	default:
	}
}

// Ready fires when at least one event is queued.
func (w *FSWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Drain removes and returns all queued events in arrival order.
func (w *FSWatcher) Drain() []domain.FsChangeEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	events := make([]domain.FsChangeEvent, 0, w.queue.Len())
	for w.queue.Len() > 0 {
		events = append(events, w.queue.PopFront())
	}
	return events
}

// Errors reports watcher errors. Closed after Close.
func (w *FSWatcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching and waits for the forwarding goroutine.
func (w *FSWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// Ensure FSWatcher implements domain.EventSource.
var _ domain.EventSource = (*FSWatcher)(nil)
