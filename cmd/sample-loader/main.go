// Package main implements sample-loader.
//
// We use the fatal variable (log.Panic) instead of log.Fatal because
// log.Fatal calls os.Exit() which will not run deferred calls and also
// makes testing harder (for testing, we can recover from a panic).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/m-lab/go/prometheusx"

	"github.com/surveysdx/sample-loader/internal/loader"
	"github.com/surveysdx/sample-loader/internal/metrics"
	"github.com/surveysdx/sample-loader/internal/watchmsg"
)

var (
	fatal = log.Panic

	// Testing support.
	startLambda = lambda.Start
)

// main supports two modes of operation:
//   - The default non-interactive mode that registers the pipeline as
//     the Lambda handler for sample file reference messages.
//   - A local mode, enabled by the -local flag, that watches a spool
//     directory for message files and runs each through the same
//     pipeline (for development and integration testing).
func main() {
	log.SetFlags(log.Ltime)
	if err := parseAndValidateCLI(); err != nil {
		fatal(err)
	}
	metrics.Register()

	ldr := loader.New(loader.Config{APIID: apiID, Endpoint: graphqlEndpoint})
	if local {
		promSrv := prometheusx.MustServeMetrics()
		defer promSrv.Close()
		if err := watchAndLoad(ldr); err != nil {
			fatal(err)
		}
	} else {
		startLambda(ldr.Handler)
	}
}

// watchAndLoad watches the spool directory for inbound message files
// and runs each through the pipeline.  Message files are removed after
// they are processed successfully; failed messages are left in place
// for inspection.
func watchAndLoad(ldr *loader.Loader) error {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()
	if testInterval != 0 {
		// Test support: stop running after the given interval.
		var cancel context.CancelFunc
		mainCtx, cancel = context.WithTimeout(mainCtx, testInterval)
		defer cancel()
	}

	watcher, err := watchmsg.New(spoolDir, missedAge, missedInterval)
	if err != nil {
		return fmt.Errorf("failed to instantiate watcher: %w", err)
	}
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer mainCancel()
		if err := watcher.WatchAndNotify(mainCtx); err != nil {
			log.Printf("ERROR: watcher terminated: %v\n", err)
		}
		wg.Done()
	}()

	for {
		select {
		case <-mainCtx.Done():
			wg.Wait()
			return nil
		case event, chOpen := <-watcher.WatchChan():
			if !chOpen {
				wg.Wait()
				return nil
			}
			loadOne(mainCtx, ldr, watcher, event)
		}
	}
}

// loadOne runs a single message file through the pipeline.
func loadOne(ctx context.Context, ldr *loader.Loader, watcher *watchmsg.Watcher, event watchmsg.Event) {
	// Always acknowledge so the watcher forgets the pathname and a
	// rewritten file is noticed again.
	defer func() {
		watcher.WatchAckChan() <- []string{event.Path}
	}()
	contents, err := os.ReadFile(event.Path)
	if err != nil {
		log.Printf("WARNING: failed to read message file %v: %v\n", event.Path, err)
		return
	}
	if _, err := ldr.Handler(ctx, contents); err != nil {
		log.Printf("ERROR: failed to load sample for %v: %v\n", event.Path, err)
	} else if err := os.Remove(event.Path); err != nil {
		log.Printf("WARNING: failed to remove processed message file %v: %v\n", event.Path, err)
	}
}
