// Package watchmsg watches a spool directory and notifies its client
// when a new inbound message file appears.  It exists for local runs,
// where message files dropped into the spool directory stand in for
// the event source that invokes the Lambda handler in production.
package watchmsg

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

// Event is the message passed through the watch channel.
type Event struct {
	Path   string // message file pathname
	Missed bool   // true if the file was found by a scan, not an inotify event
}

// Watcher watches a spool directory for message files.
type Watcher struct {
	spoolDir       string              // directory to watch
	watchChan      chan Event          // channel to send watch events through
	ackChan        chan []string       // channel for client to acknowledge processed files
	missedAge      time.Duration       // a file's minimum age before it's considered missed
	missedInterval time.Duration       // interval for scanning the spool directory for missed files
	notified       map[string]struct{} // files for which notification was sent
	notifiedLock   sync.Mutex
}

// Message files must have this extension; anything else in the spool
// directory is ignored.
const messageExt = ".json"

const watchChanSize = 1000

var (
	// watchEvents is what a finished file write looks like.
	watchEvents = []notify.Event{notify.InCloseWrite, notify.InMovedTo}

	// Testing and debugging support.
	vFunc     = func(fmt string, args ...interface{}) {}
	vFuncLock sync.Mutex
)

// Verbose prints verbose messages if initialized by the caller.
func Verbose(v func(string, ...interface{})) {
	vFuncLock.Lock()
	vFunc = v
	vFuncLock.Unlock()
}

func verbose(fmt string, args ...interface{}) {
	vFuncLock.Lock()
	vFunc(fmt, args...)
	vFuncLock.Unlock()
}

// New returns a new instance of Watcher.  The spool directory must
// already exist.
func New(spoolDir string, missedAge, missedInterval time.Duration) (*Watcher, error) {
	fi, err := os.Stat(spoolDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat spool directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%v: not a directory", spoolDir) //nolint:goerr113
	}
	return &Watcher{
		spoolDir:       filepath.Clean(spoolDir),
		watchChan:      make(chan Event, watchChanSize),
		ackChan:        make(chan []string, watchChanSize),
		missedAge:      missedAge,
		missedInterval: missedInterval,
		notified:       make(map[string]struct{}),
	}, nil
}

// WatchChan returns the channel through which watch events (message
// file paths) are sent to the client.
func (w *Watcher) WatchChan() <-chan Event {
	return w.watchChan
}

// WatchAckChan returns the channel through which the client
// acknowledges the files it has processed, so the watcher can forget
// them and notice a reused pathname later.
func (w *Watcher) WatchAckChan() chan<- []string {
	return w.ackChan
}

// WatchAndNotify watches the spool directory for new message files and
// sends their pathnames through the watch channel until ctx is
// canceled.
func (w *Watcher) WatchAndNotify(ctx context.Context) error {
	go w.findMissedAndNotify(ctx)

	verbose("watching %v for message files", w.spoolDir)
	eiChan := make(chan notify.EventInfo, watchChanSize)
	if err := notify.Watch(w.spoolDir, eiChan, watchEvents...); err != nil {
		return fmt.Errorf("failed to start notify.Watch: %w", err)
	}
	defer notify.Stop(eiChan)
	for {
		select {
		case <-ctx.Done():
			verbose("'watch and notify' context canceled for %v", w.spoolDir)
			return nil
		case ei, chOpen := <-eiChan:
			if !chOpen {
				verbose("event info channel closed")
				return nil
			}
			if !w.validPath(ei.Path(), nil) {
				verbose("ignoring %v", ei.Path())
				continue
			}
			w.checkAndNotify(Event{Path: ei.Path(), Missed: false})
		case fullPaths, chOpen := <-w.ackChan:
			if !chOpen {
				verbose("watch acknowledgement channel closed")
				return nil
			}
			w.ackNotifications(fullPaths)
		}
	}
}

// findMissedAndNotify periodically scans the spool directory for
// message files that WatchAndNotify may have missed (e.g. files
// dropped before the watch was established) and sends their pathnames
// through the watch channel.
func (w *Watcher) findMissedAndNotify(ctx context.Context) {
	verbose("scanning %v every %v to find missed message files", w.spoolDir, w.missedInterval)
	for {
		select {
		case <-ctx.Done():
			verbose("'find missed and notify' context canceled for %v", w.spoolDir)
			return
		case <-time.After(w.missedInterval):
		}

		lastMod := time.Now().Add(-w.missedAge)
		err := filepath.WalkDir(w.spoolDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to access path: %w", err)
			}
			fi, err := d.Info()
			if err != nil {
				return fmt.Errorf("failed to get file info: %w", err)
			}
			if w.validPath(path, fi) && lastMod.After(fi.ModTime()) {
				w.checkAndNotify(Event{Path: path, Missed: true})
			}
			return nil
		})
		if err != nil {
			// A file may have been processed and removed while
			// we were walking the directory.
			log.Printf("WARNING: failed to walk directory %v: %v\n", w.spoolDir, err)
		}
	}
}

// checkAndNotify sends a notification for this file unless one was
// already sent and not yet acknowledged.
func (w *Watcher) checkAndNotify(event Event) {
	w.notifiedLock.Lock()
	if _, ok := w.notified[event.Path]; ok {
		w.notifiedLock.Unlock()
		verbose("notification previously sent for %v", event)
		return
	}
	w.notified[event.Path] = struct{}{}
	w.notifiedLock.Unlock()
	w.watchChan <- event
	verbose("notification sent for %v", event)
}

// ackNotifications removes acknowledged files from the notified map so
// the map does not grow indefinitely.
func (w *Watcher) ackNotifications(fullPaths []string) {
	w.notifiedLock.Lock()
	defer w.notifiedLock.Unlock()
	for _, fullPath := range fullPaths {
		if _, ok := w.notified[fullPath]; !ok {
			log.Printf("WARNING: %v not in notified map\n", fullPath)
			continue
		}
		delete(w.notified, fullPath)
	}
}

// validPath returns true if the given path names a regular file with
// the message extension.
func (w *Watcher) validPath(path string, fi os.FileInfo) bool {
	if filepath.Ext(path) != messageExt {
		return false
	}
	if fi == nil {
		var err error
		fi, err = os.Stat(path)
		if err != nil {
			log.Printf("WARNING: failed to stat: %v\n", err)
			return false
		}
	}
	return fi.Mode().IsRegular()
}
