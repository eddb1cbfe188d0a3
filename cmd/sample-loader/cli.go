// Package main implements sample-loader.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/m-lab/go/flagx"

	"github.com/surveysdx/sample-loader/internal/appsync"
	"github.com/surveysdx/sample-loader/internal/graphqlpost"
	"github.com/surveysdx/sample-loader/internal/loader"
	"github.com/surveysdx/sample-loader/internal/s3store"
	"github.com/surveysdx/sample-loader/internal/testhelper"
	"github.com/surveysdx/sample-loader/internal/watchmsg"
)

var (
	// Flags related to the downstream API.
	apiID           string
	graphqlEndpoint string

	// Flags related to local mode (inotify events on a spool directory).
	local          bool
	spoolDir       string
	missedAge      time.Duration
	missedInterval time.Duration

	// Flags related to program's execution.
	verbose      bool
	testInterval time.Duration

	// Errors related to command line parsing and validation.
	errExtraArgs   = errors.New("extra arguments on the command line")
	errNoAPIID     = errors.New("must specify api-id")
	errNoEndpoint  = errors.New("must specify graphql-endpoint")
	errNoSpoolDir  = errors.New("must specify spool-dir in local mode")
	errBadEndpoint = errors.New("graphql-endpoint is not a valid http(s) URL")
)

func initFlags() {
	flag.StringVar(&apiID, "api-id", "", "required - AppSync API whose keys authenticate the mutation (or via API_ID env variable)")
	flag.StringVar(&graphqlEndpoint, "graphql-endpoint", "", "required - destination URL for the contributor mutation (or via GRAPHQL_ENDPOINT env variable)")
	flag.BoolVar(&local, "local", false, "watch a local spool directory for message files instead of running as a Lambda handler")
	flag.StringVar(&spoolDir, "spool-dir", "", "directory to watch for inbound message files in local mode")
	flag.DurationVar(&missedAge, "missed-age", 3*time.Hour, "minimum duration since a message file's last modification time before it is considered missed")
	flag.DurationVar(&missedInterval, "missed-interval", 30*time.Minute, "time interval between scans of the spool directory for missed message files")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose mode")
	flag.DurationVar(&testInterval, "test-interval", 0, "time interval to stop running (for test purposes only)")
}

// parseAndValidateCLI parses and validates the command line.
func parseAndValidateCLI() error {
	initFlags()
	flag.Parse()
	if flag.NArg() != 0 {
		return errExtraArgs
	}

	// Now, check if some flags were set in the environment instead
	// of on the command line (e.g. API_ID, GRAPHQL_ENDPOINT).
	if err := flagx.ArgsFromEnv(flag.CommandLine); err != nil {
		return fmt.Errorf("failed to get args from the environment: %w", err)
	}

	// Enable verbose mode in all packages as soon as the flags are
	// parsed because they may be called for during argument validation.
	if verbose {
		s3store.Verbose(testhelper.VLogf)
		appsync.Verbose(testhelper.VLogf)
		graphqlpost.Verbose(testhelper.VLogf)
		loader.Verbose(testhelper.VLogf)
		watchmsg.Verbose(testhelper.VLogf)
	}

	if apiID == "" {
		return errNoAPIID
	}
	if graphqlEndpoint == "" {
		return errNoEndpoint
	}
	if u, err := url.Parse(graphqlEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%v: %w", graphqlEndpoint, errBadEndpoint)
	}
	if local && spoolDir == "" {
		return errNoSpoolDir
	}
	return nil
}
