package types

// Envelope wraps every successful API payload. Error stays nil on success.
type Envelope[T any] struct {
	Data  T         `json:"data"`
	Error *APIError `json:"error,omitempty"`
}

type SuccessEnvelope = Envelope[any]

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Page is one newest-first slice of a list. Cursor is empty on the last page.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor"`
}
