// Package loader sequences the sample file pipeline: validate the
// inbound message, resolve its bucket location, fetch and validate the
// sample file, select the longest-lived API key, and submit the
// contributor mutation.  Any stage failure aborts the remaining stages
// and propagates as a typed fault; on success the original message is
// returned unchanged so the event source can mark it processed.
package loader

import (
	"context"
	"encoding/json"
	"time"

	"github.com/surveysdx/sample-loader/api"
	"github.com/surveysdx/sample-loader/internal/appsync"
	"github.com/surveysdx/sample-loader/internal/fault"
	"github.com/surveysdx/sample-loader/internal/graphqlpost"
	"github.com/surveysdx/sample-loader/internal/metrics"
	"github.com/surveysdx/sample-loader/internal/s3store"
	"github.com/surveysdx/sample-loader/internal/sample"
	"github.com/surveysdx/sample-loader/internal/uri"
)

// Fetcher downloads a sample file object from storage.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Selector picks the credential used to authenticate the mutation.
type Selector interface {
	Select(ctx context.Context, apiID string) (appsync.Credential, error)
}

// Submitter posts the sample file mutation.
type Submitter interface {
	Submit(ctx context.Context, file api.SampleFile, cred appsync.Credential) (bool, error)
}

// Config carries the environment-sourced settings.
type Config struct {
	APIID    string // AppSync API whose keys authenticate the mutation
	Endpoint string // GraphQL endpoint the mutation is posted to
}

// Loader runs the pipeline, one message per invocation.  The storage
// and credential clients are constructed fresh on every invocation;
// nothing is shared between invocations.
type Loader struct {
	conf        Config
	newFetcher  func(context.Context) (Fetcher, error)
	newSelector func(context.Context) (Selector, error)
	submitter   Submitter
}

var verbose = func(fmt string, args ...interface{}) {}

// Verbose provides a convenient way for the caller to enable verbose
// printing and control its format (mostly for debugging).
func Verbose(v func(string, ...interface{})) {
	verbose = v
}

// New returns a Loader that uses the AWS SDK clients and posts
// mutations with http.DefaultClient.
func New(conf Config) *Loader {
	return NewWithClients(conf,
		func(ctx context.Context) (Fetcher, error) { return s3store.New(ctx) },
		func(ctx context.Context) (Selector, error) { return appsync.New(ctx) },
		graphqlpost.New(conf.Endpoint, nil),
	)
}

// NewWithClients returns a Loader with injected collaborators.
func NewWithClients(conf Config, newFetcher func(context.Context) (Fetcher, error), newSelector func(context.Context) (Selector, error), submitter Submitter) *Loader {
	return &Loader{
		conf:        conf,
		newFetcher:  newFetcher,
		newSelector: newSelector,
		submitter:   submitter,
	}
}

// Handler adapts LoadSample to the event source's raw JSON payloads.
// An empty or non-object payload is an InvalidMessage fault, raised
// before any I/O.
func (l *Loader) Handler(ctx context.Context, payload json.RawMessage) (api.Message, error) {
	var msg api.Message
	if len(payload) == 0 {
		return msg, fault.New(fault.ErrInvalidMessage, "message is empty")
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fault.Wrap(fault.ErrInvalidMessage, "message is not a JSON object", err)
	}
	return l.LoadSample(ctx, msg)
}

// LoadSample runs the pipeline for msg and returns msg unchanged on
// success.
func (l *Loader) LoadSample(ctx context.Context, msg api.Message) (_ api.Message, err error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
		metrics.InvocationsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}()

	if err = validateMessage(msg); err != nil {
		return msg, err
	}
	loc, err := uri.Parse(msg.Location)
	if err != nil {
		return msg, err
	}
	fetcher, err := l.newFetcher(ctx)
	if err != nil {
		return msg, err
	}
	raw, err := fetcher.Fetch(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return msg, err
	}
	file, err := sample.Validate(raw, msg)
	if err != nil {
		return msg, err
	}
	selector, err := l.newSelector(ctx)
	if err != nil {
		return msg, err
	}
	cred, err := selector.Select(ctx, l.conf.APIID)
	if err != nil {
		return msg, err
	}
	verbose("submitting sample file for survey %v period %v with key %v",
		file.SurveyID, file.Period, cred.Description)
	if _, err = l.submitter.Submit(ctx, file, cred); err != nil {
		return msg, err
	}
	return msg, nil
}

// validateMessage checks the message before any I/O is attempted.
func validateMessage(msg api.Message) error {
	switch {
	case msg == (api.Message{}):
		return fault.New(fault.ErrInvalidMessage, "message is empty")
	case msg.Location == "":
		return fault.New(fault.ErrInvalidMessage, "message is missing required field: location")
	case msg.Survey == "":
		return fault.New(fault.ErrInvalidMessage, "message is missing required field: survey")
	case msg.Period == "":
		return fault.New(fault.ErrInvalidMessage, "message is missing required field: period")
	}
	return nil
}
