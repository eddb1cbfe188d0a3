// Package s3store handles downloading sample file objects from S3.
//
// The client uses the default AWS credential chain (environment,
// shared config, or the execution role in Lambda).
package s3store

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/surveysdx/sample-loader/internal/fault"
)

// ObjectGetter is the part of the S3 API the fetcher needs.  The
// concrete AWS client satisfies it; tests substitute a fake so no
// global patching is needed.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client fetches sample file objects from S3.
type Client struct {
	api ObjectGetter
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

// New returns a new S3 client using the default credential chain.
// A construction failure is a ClientConnection fault, distinct in text
// from a failed retrieval.
func New(ctx context.Context) (*Client, error) {
	verbose("creating new storage client")
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.ErrClientConnection, "failed to connect to storage client", err)
	}
	return NewWithAPI(s3.NewFromConfig(cfg)), nil
}

// NewWithAPI returns a client on top of the given API implementation.
func NewWithAPI(api ObjectGetter) *Client {
	return &Client{api: api}
}

// Fetch downloads the object at bucket/key and returns its contents.
// Every retrieval failure (not found, access denied, read error) is a
// ClientConnection fault with the same stable text; callers that need
// to tell retrieval apart from client construction compare the text.
func (c *Client) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	verbose("fetching '%v:%v'", bucket, key)
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fault.Wrap(fault.ErrClientConnection, "could not get sample file", err)
	}
	defer out.Body.Close()
	contents, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fault.Wrap(fault.ErrClientConnection, "could not get sample file", err)
	}
	verbose("'%v:%v' %v bytes", bucket, key, len(contents))
	return contents, nil
}
