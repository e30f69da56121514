package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Tuning holds the runtime-changeable placement and clustering
// parameters.
type Tuning struct {
	PlacementThreshold float64 `json:"placementThreshold"`
	ClusterThreshold   float64 `json:"clusterThreshold"`
	TopKCandidates     int     `json:"topKCandidates"`
}

// TuningWatcher watches the tuning file and serves the latest valid
// snapshot. Invalid reloads keep the previous values.
type TuningWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  Tuning
	mu       sync.RWMutex
	onChange []func(Tuning)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewTuningWatcher loads the initial tuning file and prepares the
// fsnotify watcher. The directory is also watched to catch atomic
// saves done as rename operations.
func NewTuningWatcher(path string, logger *zap.Logger) (*TuningWatcher, error) {
	tuning, err := loadTuningFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch tuning directory", zap.Error(err))
	}

	return &TuningWatcher{
		path:    path,
		watcher: watcher,
		current: tuning,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for tuning changes.
func (w *TuningWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("tuning watcher started", zap.String("path", w.path))
}

// Stop stops the watcher.
func (w *TuningWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// Current returns the latest valid tuning snapshot.
func (w *TuningWatcher) Current() Tuning {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *TuningWatcher) OnChange(handler func(Tuning)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

func (w *TuningWatcher) watchLoop() {
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("tuning watcher error", zap.Error(err))
		}
	}
}

func (w *TuningWatcher) reload() {
	tuning, err := loadTuningFile(w.path)
	if err != nil {
		w.logger.Error("failed to reload tuning, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = tuning
	handlers := make([]func(Tuning), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	w.logger.Info("tuning reloaded",
		zap.Float64("placementThreshold", tuning.PlacementThreshold),
		zap.Float64("clusterThreshold", tuning.ClusterThreshold),
		zap.Int("topKCandidates", tuning.TopKCandidates),
		zap.Float64("previousPlacementThreshold", old.PlacementThreshold),
		zap.Float64("previousClusterThreshold", old.ClusterThreshold),
	)

	for _, handler := range handlers {
		go handler(tuning)
	}
}

func loadTuningFile(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}

	var tuning Tuning
	if err := json.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := validateTuning(tuning); err != nil {
		return Tuning{}, err
	}
	return tuning, nil
}

func validateTuning(t Tuning) error {
	if t.PlacementThreshold < 0 || t.PlacementThreshold > 1 {
		return fmt.Errorf("placementThreshold must be in [0,1]")
	}
	if t.ClusterThreshold < 0 || t.ClusterThreshold > 1 {
		return fmt.Errorf("clusterThreshold must be in [0,1]")
	}
	if t.TopKCandidates <= 0 {
		return fmt.Errorf("topKCandidates must be positive")
	}
	return nil
}
