// Package appsync selects the API key used to authenticate the
// outbound GraphQL mutation.  Keys are listed fresh on every
// invocation; nothing is cached because key lifecycle is managed
// outside this service.
package appsync

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsappsync "github.com/aws/aws-sdk-go-v2/service/appsync"

	"github.com/surveysdx/sample-loader/internal/fault"
)

// Credential is a time-bounded API key.
type Credential struct {
	ID          string // presented as the X-Api-Key header value
	Description string
	Expires     int64 // seconds since the epoch
}

// KeyLister is the part of the AppSync API the selector needs.  The
// concrete AWS client satisfies it; tests substitute a fake so no
// global patching is needed.
type KeyLister interface {
	ListApiKeys(ctx context.Context, params *awsappsync.ListApiKeysInput, optFns ...func(*awsappsync.Options)) (*awsappsync.ListApiKeysOutput, error)
}

// Client selects credentials for an AppSync API.
type Client struct {
	api KeyLister
}

var (
	// Testing and debugging support.
	loadConfig = awsconfig.LoadDefaultConfig
	verbose    = func(fmt string, args ...interface{}) {}
)

// Verbose provides a convenient way for the caller to enable verbose
// printing and control its format (mostly for debugging).
func Verbose(v func(string, ...interface{})) {
	verbose = v
}

// New returns a new AppSync client using the default credential chain.
func New(ctx context.Context) (*Client, error) {
	verbose("creating new appsync client")
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.ErrClientConnection, "failed to connect to the managed client", err)
	}
	return NewWithAPI(awsappsync.NewFromConfig(cfg)), nil
}

// NewWithAPI returns a client on top of the given API implementation.
func NewWithAPI(api KeyLister) *Client {
	return &Client{api: api}
}

// Select returns the key of apiID with the greatest expiry.  Only the
// first page of results is consulted; the pagination token is ignored.
// On a tie the first listed key wins (see DESIGN.md).  An empty key
// set is a failure because the mutation cannot be authenticated.
func (c *Client) Select(ctx context.Context, apiID string) (Credential, error) {
	out, err := c.api.ListApiKeys(ctx, &awsappsync.ListApiKeysInput{ApiId: aws.String(apiID)})
	if err != nil {
		return Credential{}, fault.Wrap(fault.ErrClientConnection, "failed to connect to the managed client", err)
	}
	if len(out.ApiKeys) == 0 {
		return Credential{}, fault.New(fault.ErrClientConnection, "no api keys available for "+apiID)
	}
	best := out.ApiKeys[0]
	for _, key := range out.ApiKeys[1:] {
		if key.Expires > best.Expires {
			best = key
		}
	}
	verbose("selected key %v expiring at %v among %v keys",
		aws.ToString(best.Description), best.Expires, len(out.ApiKeys))
	return Credential{
		ID:          aws.ToString(best.Id),
		Description: aws.ToString(best.Description),
		Expires:     best.Expires,
	}, nil
}
