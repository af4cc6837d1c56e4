package models

// ErrorMessageResponse is the body of every error response
type ErrorMessageResponse struct {
	Response MessageError `json:"response"`
}

// MessageError contains the inner details for the error message response.
// Kind and Field are only set for failed submissions.
type MessageError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
}
