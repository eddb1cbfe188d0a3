package uri //nolint:testpackage

import (
	"errors"
	"strings"
	"testing"

	"github.com/surveysdx/sample-loader/internal/fault"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     Location
		wantErr  bool
	}{
		{"valid", "s3://test_bucket/sample-file.json", Location{"test_bucket", "sample-file.json"}, false},
		{"valid nested key", "s3://bucket/2023/06/sample.json", Location{"bucket", "2023/06/sample.json"}, false},
		{"no scheme", "not_a_uri", Location{}, true},
		{"wrong scheme", "gs://bucket/key", Location{}, true},
		{"no key", "s3://notauri", Location{}, true},
		{"empty key", "s3://bucket/", Location{}, true},
		{"empty bucket", "s3:///key", Location{}, true},
		{"empty", "", Location{}, true},
	}
	for _, test := range tests {
		got, err := Parse(test.location)
		if test.wantErr {
			if !errors.Is(err, fault.ErrInvalidURI) {
				t.Errorf("%v: Parse() = %v, want InvalidURI", test.name, err)
				continue
			}
			// The message text is part of the contract.
			if !strings.Contains(err.Error(), "bucket location") {
				t.Errorf("%v: Parse() = %q, want text to contain \"bucket location\"", test.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: Parse() = %v, want nil", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%v: Parse() = %+v, want %+v", test.name, got, test.want)
		}
	}
}
