// Package graphqlpost submits the contributor mutation for a validated
// sample file to the downstream GraphQL API.
package graphqlpost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/surveysdx/sample-loader/api"
	"github.com/surveysdx/sample-loader/internal/appsync"
	"github.com/surveysdx/sample-loader/internal/fault"
)

// mutationName is the field of the response's data object that carries
// the acknowledgment.
const mutationName = "addContributorFromSampleFile"

const mutation = `mutation addContributorFromSampleFile($survey_id: String!, $period: String!, $details: AWSJSON!) {
  addContributorFromSampleFile(survey_id: $survey_id, period: $period, details: $details)
}`

// request is the wire shape of the outbound POST.  Variables is a
// JSON-encoded string, not a nested object (the shape the downstream
// API expects).
type request struct {
	Query     string `json:"query"`
	Variables string `json:"variables"`
}

type response struct {
	Data map[string]bool `json:"data"`
}

var verbose = func(fmt string, args ...interface{}) {}

// Verbose provides a convenient way for the caller to enable verbose
// printing and control its format (mostly for debugging).
func Verbose(v func(string, ...interface{})) {
	verbose = v
}

// Submitter posts sample file mutations to a GraphQL endpoint.
type Submitter struct {
	endpoint string
	client   *http.Client
}

// New returns a Submitter for the given endpoint.  The endpoint is
// normalized to end with a single trailing slash.  A nil client means
// http.DefaultClient.
func New(endpoint string, client *http.Client) *Submitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Submitter{
		endpoint: strings.TrimRight(endpoint, "/") + "/",
		client:   client,
	}
}

// Submit posts the mutation for the given sample file, authenticated
// with cred's ID as the X-Api-Key header, and returns the API's
// acknowledgment.  Transport failures, non-2xx statuses, malformed
// responses, and unacknowledged mutations are all Submission faults;
// nothing is retried here.
func (s *Submitter) Submit(ctx context.Context, file api.SampleFile, cred appsync.Credential) (bool, error) {
	details, err := json.Marshal(file.Details)
	if err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to encode sample file details", err)
	}
	variables, err := json.Marshal(map[string]string{
		"survey_id": file.SurveyID,
		"period":    file.Period,
		"details":   string(details),
	})
	if err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to encode mutation variables", err)
	}
	body, err := json.Marshal(request{Query: mutation, Variables: string(variables)})
	if err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to encode mutation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to build mutation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", cred.ID)

	verbose("posting %v for survey %v period %v to %v", mutationName, file.SurveyID, file.Period, s.endpoint)
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to post mutation", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fault.New(fault.ErrSubmission, fmt.Sprintf("mutation returned status %v", resp.Status))
	}
	var ack response
	if err = json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return false, fault.Wrap(fault.ErrSubmission, "failed to decode mutation response", err)
	}
	if !ack.Data[mutationName] {
		return false, fault.New(fault.ErrSubmission, mutationName+" was not acknowledged")
	}
	return true, nil
}
