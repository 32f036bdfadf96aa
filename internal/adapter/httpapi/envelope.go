package httpapi

import "github.com/signsofter/caseobserver-dashboard/internal/domain"

// ResultSuccess is the only Envelope.Result that carries usable data.
const ResultSuccess = "SUCCESS"

// Envelope is the {result, message, data} wrapper of the monitoring endpoints.
type Envelope[T any] struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Check returns a *ResultError unless the backend reported success.
// fallback is used when the backend sent no message.
func (e Envelope[T]) Check(fallback string) error {
	if e.Result == ResultSuccess {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = fallback
	}
	return &ResultError{Result: e.Result, Message: msg}
}

// ResultError is a 2xx response whose envelope reported a failure.
type ResultError struct {
	Result  string
	Message string
}

func (e *ResultError) Error() string { return e.Message }

func (e *ResultError) Unwrap() error { return domain.ErrRequestFailed }
