package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchErrorKind classifies provider fetch failures so the collector loop can
// tell transient trouble from bad credentials or broken payloads.
type FetchErrorKind string

const (
	FetchErrNetwork    FetchErrorKind = "network"
	FetchErrAuth       FetchErrorKind = "auth"
	FetchErrHTTPStatus FetchErrorKind = "http_status"
	FetchErrParse      FetchErrorKind = "parse"
)

// FetchError is the single error type provider clients return from Fetch.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with its failure classification.
func NewFetchError(kind FetchErrorKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or FetchErrNetwork when err is
// not a FetchError.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FetchErrNetwork
}

// ClassifyStatus maps a non-2xx HTTP status code to a fetch error kind.
func ClassifyStatus(code int) FetchErrorKind {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return FetchErrAuth
	}
	return FetchErrHTTPStatus
}
