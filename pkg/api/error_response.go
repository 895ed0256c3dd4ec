package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrorStatus is the canonical status code of a structured API error.
type ErrorStatus int

const (
	StatusCancelled          ErrorStatus = 1
	StatusUnknown            ErrorStatus = 2
	StatusInvalidArgument    ErrorStatus = 3
	StatusDeadlineExceeded   ErrorStatus = 4
	StatusNotFound           ErrorStatus = 5
	StatusAlreadyExists      ErrorStatus = 6
	StatusPermissionDenied   ErrorStatus = 7
	StatusResourceExhausted  ErrorStatus = 8
	StatusFailedPrecondition ErrorStatus = 9
	StatusAborted            ErrorStatus = 10
	StatusOutOfRange         ErrorStatus = 11
	StatusUnimplemented      ErrorStatus = 12
	StatusInternal           ErrorStatus = 13
	StatusUnavailable        ErrorStatus = 14
	StatusDataLoss           ErrorStatus = 15
	StatusUnauthenticated    ErrorStatus = 16
)

var statusNames = map[ErrorStatus]string{
	StatusCancelled:          "CANCELLED",
	StatusUnknown:            "UNKNOWN",
	StatusInvalidArgument:    "INVALID_ARGUMENT",
	StatusDeadlineExceeded:   "DEADLINE_EXCEEDED",
	StatusNotFound:           "NOT_FOUND",
	StatusAlreadyExists:      "ALREADY_EXISTS",
	StatusPermissionDenied:   "PERMISSION_DENIED",
	StatusResourceExhausted:  "RESOURCE_EXHAUSTED",
	StatusFailedPrecondition: "FAILED_PRECONDITION",
	StatusAborted:            "ABORTED",
	StatusOutOfRange:         "OUT_OF_RANGE",
	StatusUnimplemented:      "UNIMPLEMENTED",
	StatusInternal:           "INTERNAL",
	StatusUnavailable:        "UNAVAILABLE",
	StatusDataLoss:           "DATA_LOSS",
	StatusUnauthenticated:    "UNAUTHENTICATED",
}

// String returns the enumerated name, e.g. "NOT_FOUND".
func (s ErrorStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "STATUS_" + strconv.Itoa(int(s))
}

// UnmarshalJSON accepts the numeric code or its name.
func (s *ErrorStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		for code, n := range statusNames {
			if n == name {
				*s = code
				return nil
			}
		}
		return fmt.Errorf("unknown error status %q", name)
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*s = ErrorStatus(code)
	return nil
}

type ErrorInfo struct {
	Reason string `json:"reason"`
	Domain string `json:"domain"`
}

type ErrorDetails struct {
	Info *ErrorInfo `json:"info"`
}

// ErrorResponse is a structured error returned by the API. It is a
// regular result variant, not a Go error.
type ErrorResponse struct {
	Status  ErrorStatus   `json:"status"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// Info returns the error info when details carry one.
func (e ErrorResponse) Info() (ErrorInfo, bool) {
	if e.Details == nil || e.Details.Info == nil {
		return ErrorInfo{}, false
	}
	return *e.Details.Info, true
}
