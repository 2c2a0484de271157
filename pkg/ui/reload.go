// This file implements the ReloadWorker, which re-reads the payload file off
// the UI goroutine whenever it changes on disk.

package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/model"
)

// Sender delivers messages into a running program. *tea.Program satisfies
// it.
type Sender interface {
	Send(msg tea.Msg)
}

// ReloadMsg carries a freshly loaded payload to the UI.
type ReloadMsg struct {
	Roots []model.Descriptor
	Hash  string
}

// ReloadErrorMsg reports a failed reload. The previous tree stays on screen.
type ReloadErrorMsg struct {
	Err error
}

// ReloadError wraps errors with phase and retry context.
type ReloadError struct {
	Phase   string // "load" or "hash"
	Cause   error
	Time    time.Time
	Retries int // consecutive failures including this one
}

func (e ReloadError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e ReloadError) Unwrap() error {
	return e.Cause
}

// ReloadConfig configures a ReloadWorker.
type ReloadConfig struct {
	Path     string
	Debounce time.Duration
	Sender   Sender
}

// ReloadWorker watches one payload file and sends a ReloadMsg for every
// change that alters its content.
type ReloadWorker struct {
	path   string
	sender Sender

	mu         sync.Mutex
	processing bool
	dirty      bool // a change arrived while processing
	lastHash   string
	lastError  *ReloadError
	errorCount int
	started    bool
	stopped    bool

	watcher *loader.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewReloadWorker creates a worker for cfg.Path. Nothing is watched until
// Start.
func NewReloadWorker(cfg ReloadConfig) (*ReloadWorker, error) {
	w := &ReloadWorker{
		path:   cfg.Path,
		sender: cfg.Sender,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if cfg.Path == "" {
		return w, nil
	}
	fw, err := loader.NewWatcher(cfg.Path, cfg.Debounce)
	if err != nil {
		return nil, err
	}
	w.watcher = fw
	return w, nil
}

// Start begins watching. Start is idempotent.
func (w *ReloadWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher == nil {
		close(w.done)
		return nil
	}
	if err := w.watcher.Start(); err != nil {
		close(w.done)
		return err
	}
	go w.loop()
	return nil
}

// Stop halts the worker. Stop is idempotent.
func (w *ReloadWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stop)
	if w.watcher != nil {
		w.watcher.Stop()
	}
	if started {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

func (w *ReloadWorker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.watcher.Changed():
			w.Process()
		}
	}
}

// Process reloads the payload now. A call that arrives while another is
// running marks the worker dirty so the running call loads once more.
func (w *ReloadWorker) Process() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if w.processing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.processing = true
	w.mu.Unlock()

	for {
		w.reloadOnce()

		w.mu.Lock()
		if !w.dirty || w.stopped {
			w.processing = false
			w.dirty = false
			w.mu.Unlock()
			return
		}
		w.dirty = false
		w.mu.Unlock()
	}
}

func (w *ReloadWorker) reloadOnce() {
	if w.path == "" {
		return
	}

	var roots []model.Descriptor
	if rerr := safeCompute("load", func() error {
		var err error
		roots, err = loader.Load(w.path)
		return err
	}); rerr != nil {
		w.fail(rerr)
		return
	}

	var hash string
	if rerr := safeCompute("hash", func() error {
		var err error
		hash, err = payloadHash(roots)
		return err
	}); rerr != nil {
		w.fail(rerr)
		return
	}

	w.mu.Lock()
	unchanged := hash == w.lastHash
	w.lastHash = hash
	w.lastError = nil
	w.errorCount = 0
	w.mu.Unlock()

	if unchanged {
		return
	}
	if w.sender != nil {
		w.sender.Send(ReloadMsg{Roots: roots, Hash: hash})
	}
}

func (w *ReloadWorker) fail(err *ReloadError) {
	w.mu.Lock()
	w.errorCount++
	err.Retries = w.errorCount
	w.lastError = err
	w.mu.Unlock()

	log.Printf("warning: reloading %s: %v", w.path, err)
	if w.sender != nil {
		w.sender.Send(ReloadErrorMsg{Err: err})
	}
}

// safeCompute executes fn and recovers from any panics.
func safeCompute(phase string, fn func() error) *ReloadError {
	var result *ReloadError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &ReloadError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &ReloadError{Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

func payloadHash(roots []model.Descriptor) (string, error) {
	data, err := json.Marshal(roots)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LastError returns the most recent failure, or nil after a success.
func (w *ReloadWorker) LastError() *ReloadError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastError
}

// LastHash returns the content hash of the last successful load.
func (w *ReloadWorker) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHash
}

// SetBaseline records roots as already on screen, so a save that leaves the
// content unchanged does not trigger a reload.
func (w *ReloadWorker) SetBaseline(roots []model.Descriptor) error {
	hash, err := payloadHash(roots)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
	return nil
}
