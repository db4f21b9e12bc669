// Package storage persists the whole monitor state as one JSON snapshot
// file.
//
// Saving is asynchronous: snapshots go down a small channel to a single
// writer goroutine, and a burst of mutations collapses into one write of
// the newest snapshot. The file is written to a temp path and renamed, so
// a crash mid-write never corrupts the previous state.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
)

// File owns one snapshot file.
type File struct {
	path   string
	logger *zap.Logger

	writeCh       chan monitor.Snapshot
	writerStopped chan struct{}

	errorLock sync.RWMutex
	lastError error
}

// Open prepares the snapshot file for writing and starts the writer.
// The file itself is created on the first save.
func Open(path string, logger *zap.Logger) (*File, error) {
	f := &File{
		path:          path,
		logger:        logger,
		writeCh:       make(chan monitor.Snapshot, 1),
		writerStopped: make(chan struct{}),
	}

	if file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644); err != nil {
		return nil, argerr.New(argerr.ErrPersistence, err, "failed to open snapshot file %s", path)
	} else {
		file.Close()
	}

	go f.writer()

	return f, nil
}

// Load reads the snapshot back. A file that does not exist yet yields the
// empty default state; a file that cannot be parsed is an error so the
// caller can decide to start empty.
func Load(path string) (monitor.Snapshot, error) {
	empty := monitor.Snapshot{Settings: monitor.DefaultSettings()}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return empty, nil
		}
		return empty, argerr.New(argerr.ErrPersistence, err, "failed to read snapshot file %s", path)
	}
	if len(raw) == 0 {
		return empty, nil
	}

	var snap monitor.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return empty, argerr.New(argerr.ErrPersistence, err, "failed to parse snapshot file %s", path)
	}

	snap.Settings = snap.Settings.Normalize()
	return snap, nil
}

// Save queues a snapshot for writing and returns immediately. When the
// queue is full the older queued snapshot is replaced, never the caller
// blocked.
func (f *File) Save(snap monitor.Snapshot) {
	select {
	case f.writeCh <- snap:
		return
	default:
	}

	select {
	case <-f.writeCh:
	default:
	}

	select {
	case f.writeCh <- snap:
	default:
		// A racing saver queued a fresher snapshot in between. Fine.
	}
}

// Close flushes pending writes and stops the writer. It returns the error
// of the last write attempt, if any.
func (f *File) Close() error {
	close(f.writeCh)
	<-f.writerStopped
	return f.Err()
}

// Err returns the error of the most recent write attempt, or nil when it
// succeeded.
func (f *File) Err() error {
	f.errorLock.RLock()
	defer f.errorLock.RUnlock()
	return f.lastError
}

// Healthy reports whether the last write attempt succeeded.
func (f *File) Healthy() bool {
	return f.Err() == nil
}

func (f *File) writer() {
	defer close(f.writerStopped)

	for snap := range f.writeCh {
	drain:
		for {
			select {
			case newer, ok := <-f.writeCh:
				if !ok {
					break drain
				}
				snap = newer
			default:
				break drain
			}
		}

		f.write(snap)
	}
}

func (f *File) write(snap monitor.Snapshot) {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		f.setError(argerr.New(argerr.ErrPersistence, err, "failed to encode snapshot"))
		return
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		f.setError(argerr.New(argerr.ErrPersistence, err, "failed to write snapshot file"))
		return
	}
	if err := os.Rename(tmp, f.path); err != nil {
		f.setError(argerr.New(argerr.ErrPersistence, err, "failed to replace snapshot file"))
		return
	}

	f.setError(nil)
}

func (f *File) setError(err error) {
	f.errorLock.Lock()
	f.lastError = err
	f.errorLock.Unlock()

	if err != nil {
		f.logger.Error("snapshot write failed", zap.Error(err))
	}
}
