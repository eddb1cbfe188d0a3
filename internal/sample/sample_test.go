package sample //nolint:testpackage

import (
	"errors"
	"strings"
	"testing"

	"github.com/surveysdx/sample-loader/api"
	"github.com/surveysdx/sample-loader/internal/fault"
)

var testMessage = api.Message{
	Location: "s3://test_bucket/sample-file.json",
	Survey:   "test_survey",
	Period:   "test_period",
}

func TestValidateSucceed(t *testing.T) {
	raw := []byte(`{"survey_id": "test_survey", "period": "test_period", "details": {"ruref": "test_ruref"}}`)
	file, err := Validate(raw, testMessage)
	if err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if file.SurveyID != "test_survey" || file.Period != "test_period" {
		t.Fatalf("Validate() = %+v, want identifiers from the file", file)
	}
	if ruref, ok := file.Details["ruref"].(string); !ok || ruref != "test_ruref" {
		t.Fatalf("Validate() details = %+v, want ruref test_ruref", file.Details)
	}
}

func TestValidateFail(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
	}{
		{"unparsable", `not json at all`, "could not parse sample file"},
		{"missing survey_id", `{"period": "test_period", "details": {"ruref": "test_ruref"}}`, "missing required attribute: survey_id"},
		{"missing period", `{"survey_id": "test_survey", "details": {"ruref": "test_ruref"}}`, "missing required attribute: period"},
		{"missing details", `{"survey_id": "test_survey", "period": "test_period"}`, "missing required attribute: details"},
		{"missing ruref", `{"survey_id": "test_survey", "period": "test_period", "details": {}}`, "missing required attribute: ruref"},
		{"survey_id not a string", `{"survey_id": 23, "period": "test_period", "details": {"ruref": "test_ruref"}}`, "attribute survey_id is not a string"},
		{"details not an object", `{"survey_id": "test_survey", "period": "test_period", "details": "ruref"}`, "attribute details is not an object"},
		{"ruref not a string", `{"survey_id": "test_survey", "period": "test_period", "details": {"ruref": 42}}`, "attribute ruref is not a non-empty string"},
		{"empty ruref", `{"survey_id": "test_survey", "period": "test_period", "details": {"ruref": ""}}`, "attribute ruref is not a non-empty string"},
	}
	for _, test := range tests {
		_, err := Validate([]byte(test.raw), testMessage)
		if !errors.Is(err, fault.ErrSampleFile) {
			t.Errorf("%v: Validate() = %v, want SampleFile fault", test.name, err)
			continue
		}
		if !strings.Contains(err.Error(), test.wantText) {
			t.Errorf("%v: Validate() = %q, want text to contain %q", test.name, err, test.wantText)
		}
	}
}

func TestValidateMismatch(t *testing.T) {
	raw := []byte(`{"survey_id": "test_survey", "period": "test_period", "details": {"ruref": "test_ruref"}}`)

	msg := testMessage
	msg.Survey = "wrong_survey"
	_, err := Validate(raw, msg)
	if !errors.Is(err, fault.ErrSampleFile) || !strings.Contains(err.Error(), "survey_id mismatch") {
		t.Fatalf("Validate() = %v, want survey_id mismatch", err)
	}

	msg = testMessage
	msg.Period = "wrong_period"
	_, err = Validate(raw, msg)
	if !errors.Is(err, fault.ErrSampleFile) || !strings.Contains(err.Error(), "period mismatch") {
		t.Fatalf("Validate() = %v, want period mismatch", err)
	}

	// Both identifiers wrong: the survey check runs first.
	msg = api.Message{Location: testMessage.Location, Survey: "wrong_survey", Period: "wrong_period"}
	_, err = Validate(raw, msg)
	if err == nil || !strings.Contains(err.Error(), "survey_id mismatch") {
		t.Fatalf("Validate() = %v, want survey_id mismatch reported first", err)
	}
}

// Presence checks run before cross-validation: a file missing an
// attribute reports the missing attribute even when the message would
// also mismatch.
func TestValidateOrderOfChecks(t *testing.T) {
	raw := []byte(`{"survey_id": "test_survey", "period": "test_period"}`)
	msg := testMessage
	msg.Survey = "wrong_survey"
	_, err := Validate(raw, msg)
	if err == nil || !strings.Contains(err.Error(), "missing required attribute: details") {
		t.Fatalf("Validate() = %v, want missing attribute reported before mismatch", err)
	}
}
