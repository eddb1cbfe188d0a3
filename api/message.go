// Package api defines the wire types the sample loader exchanges with
// the invoking event source and the downstream GraphQL API.
package api

// Message is the inbound event payload that references a sample file
// in object storage.  All three fields must be present and non-empty
// before any I/O is attempted.  On success the pipeline returns the
// message unchanged, which is how the event source knows the input
// was processed.
type Message struct {
	Location string `json:"location"` // s3://<bucket>/<key> of the sample file
	Survey   string `json:"survey"`   // survey the sample file belongs to
	Period   string `json:"period"`   // collection period the sample file covers
}

// SampleFile is the decoded contents of a sample file object.  Details
// is an application-defined payload that must at least carry the
// reference unit identifier ("ruref").  SurveyID and Period must match
// the message that referenced the file.
type SampleFile struct {
	SurveyID string                 `json:"survey_id"`
	Period   string                 `json:"period"`
	Details  map[string]interface{} `json:"details"`
}
