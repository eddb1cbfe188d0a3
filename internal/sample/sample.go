// Package sample validates sample file contents against the inbound
// message that referenced them.
package sample

import (
	"encoding/json"
	"fmt"

	"github.com/surveysdx/sample-loader/api"
	"github.com/surveysdx/sample-loader/internal/fault"
)

// Validate parses raw as JSON and checks it against msg.  Presence and
// type checks run before cross-validation, and the survey check runs
// before the period check, so for any given bad file the first failure
// is deterministic.  All failures are SampleFile faults; the
// "survey_id mismatch" and "period mismatch" texts are part of the
// observable contract.
func Validate(raw []byte, msg api.Message) (api.SampleFile, error) {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return api.SampleFile{}, fault.Wrap(fault.ErrSampleFile, "could not parse sample file", err)
	}
	surveyID, err := stringAttr(record, "survey_id")
	if err != nil {
		return api.SampleFile{}, err
	}
	period, err := stringAttr(record, "period")
	if err != nil {
		return api.SampleFile{}, err
	}
	rawDetails, ok := record["details"]
	if !ok {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile, "missing required attribute: details")
	}
	details, ok := rawDetails.(map[string]interface{})
	if !ok {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile, "attribute details is not an object")
	}
	rawRuref, ok := details["ruref"]
	if !ok {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile, "missing required attribute: ruref")
	}
	if ruref, ok := rawRuref.(string); !ok || ruref == "" {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile, "attribute ruref is not a non-empty string")
	}

	if surveyID != msg.Survey {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile,
			fmt.Sprintf("survey_id mismatch: sample file has %q, message has %q", surveyID, msg.Survey))
	}
	if period != msg.Period {
		return api.SampleFile{}, fault.New(fault.ErrSampleFile,
			fmt.Sprintf("period mismatch: sample file has %q, message has %q", period, msg.Period))
	}
	return api.SampleFile{SurveyID: surveyID, Period: period, Details: details}, nil
}

// stringAttr returns the named top-level attribute, which must be
// present and a string.
func stringAttr(record map[string]interface{}, name string) (string, error) {
	v, ok := record[name]
	if !ok {
		return "", fault.New(fault.ErrSampleFile, "missing required attribute: "+name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fault.New(fault.ErrSampleFile, "attribute "+name+" is not a string")
	}
	return s, nil
}
