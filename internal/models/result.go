package models

// ErrorDetails carries a machine-readable code and a suggestion for the
// surveyor when the backend rejects a submission.
type ErrorDetails struct {
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Result is the outcome of a create or update call against the backend.
type Result struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	SurveyID     string        `json:"surveyId,omitempty"`
	ErrorDetails *ErrorDetails `json:"errorDetails,omitempty"`
}
