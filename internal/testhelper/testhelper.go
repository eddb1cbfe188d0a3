// Package testhelper implements code that helps in unit and
// integration testing.  The helpers in this package include verbose
// logging (with colored details) and fake S3 and AppSync clients that
// serve canned sample files and API keys while counting calls, so
// tests can assert that no I/O happened before message validation.
package testhelper

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsappsync "github.com/aws/aws-sdk-go-v2/service/appsync"
	appsynctypes "github.com/aws/aws-sdk-go-v2/service/appsync/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	ANSIGreen = "\033[00;32m"
	ANSIBlue  = "\033[00;34m"
	ANSIEnd   = "\033[0m"
)

// ErrNoSuchObject is returned by FakeObjectGetter for unknown keys.
var ErrNoSuchObject = errors.New("no such object")

// VLogf logs messages in verbose mode (mostly for debugging).  Messages
// are prefixed by "filename:line-number function()" printed in green and
// the message printed in blue for easier visual inspection.
func VLogf(format string, args ...interface{}) {
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		log.Printf(format, args...)
		return
	}
	details := runtime.FuncForPC(pc)
	if details == nil {
		log.Printf(format, args...)
		return
	}
	file = filepath.Base(file)
	idx := strings.LastIndex(details.Name(), "/")
	if idx == -1 {
		idx = 0
	} else {
		idx++
	}
	a := []interface{}{ANSIGreen, file, line, details.Name()[idx:], ANSIBlue}
	a = append(a, args...)
	log.Printf("%s%s:%d: %s(): %s"+format+"%s", append(a, ANSIEnd)...)
}

// FakeObjectGetter serves objects from an in-memory map keyed by
// "<bucket>/<key>".  If Err is set, every call fails with it.
type FakeObjectGetter struct {
	Objects map[string][]byte
	Err     error
	Calls   int
}

// GetObject implements the part of the S3 API that s3store needs.
func (f *FakeObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	contents, ok := f.Objects[name]
	if !ok {
		return nil, ErrNoSuchObject
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(contents))}, nil
}

// FakeKeyLister serves a fixed set of API keys.  If Err is set, every
// call fails with it.
type FakeKeyLister struct {
	Keys  []appsynctypes.ApiKey
	Err   error
	Calls int
}

// ListApiKeys implements the part of the AppSync API that the
// credential selector needs.  Only a single page is ever served; the
// returned token is a canned value the selector must not follow.
func (f *FakeKeyLister) ListApiKeys(ctx context.Context, params *awsappsync.ListApiKeysInput, optFns ...func(*awsappsync.Options)) (*awsappsync.ListApiKeysOutput, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &awsappsync.ListApiKeysOutput{
		ApiKeys:   f.Keys,
		NextToken: aws.String("next-token"),
	}, nil
}

// APIKey is a convenience constructor for the AWS API key type.
func APIKey(id, description string, expires int64) appsynctypes.ApiKey {
	return appsynctypes.ApiKey{
		Id:          aws.String(id),
		Description: aws.String(description),
		Expires:     expires,
	}
}
