package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/docker/go-units"
	"github.com/fsnotify/fsnotify"
)

// Config is the on-disk shape of a memory budget file, e.g.:
//
//	{"budget": "2GiB"}
type Config struct {
	Budget string `json:"budget"`
}

// ParseBudget turns a human-readable size ("512MiB", "2GiB") into bytes.
func ParseBudget(s string) (int64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("memory: parse budget %q: %w", s, err)
	}
	return n, nil
}

func loadConfig(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("memory: parse config %s: %w", path, err)
	}
	return ParseBudget(cfg.Budget)
}

// Watcher hot-reloads a Broker's budget whenever the backing config file
// changes, so a long-running store can have its memory budget adjusted
// without a restart.
type Watcher struct {
	broker *Broker
	watch  *fsnotify.Watcher
	mu     sync.Mutex
	done   chan struct{}
}

// WatchConfig loads path once synchronously, applies it to broker, and
// then watches path for further changes in the background.
func WatchConfig(path string, broker *Broker) (*Watcher, error) {
	budget, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	broker.SetBudget(budget)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("memory: create watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("memory: watch %s: %w", path, err)
	}

	watcher := &Watcher{broker: broker, watch: w, done: make(chan struct{})}
	go watcher.run(path)
	return watcher, nil
}

func (w *Watcher) run(path string) {
	for {
		select {
		case ev, ok := <-w.watch.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if budget, err := loadConfig(path); err == nil {
				w.broker.SetBudget(budget)
			}
		case _, ok := <-w.watch.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops watching the config file.
func (w *Watcher) Close() {
	close(w.done)
	w.watch.Close()
}
