package api

// Outcome tags which variant a Result holds.
type Outcome int

const (
	// OutcomeAbsent means no usable response was obtained. It is the zero
	// value, so an uninitialised Result reads as absent.
	OutcomeAbsent Outcome = iota
	OutcomeSuccess
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	default:
		return "absent"
	}
}

// Result is the outcome of one backend call: a success payload, a
// structured ErrorResponse, or absent.
type Result[T any] struct {
	outcome Outcome
	value   T
	errResp ErrorResponse
}

func Success[T any](v T) Result[T] {
	return Result[T]{outcome: OutcomeSuccess, value: v}
}

func Failure[T any](e ErrorResponse) Result[T] {
	return Result[T]{outcome: OutcomeError, errResp: e}
}

func Absent[T any]() Result[T] {
	return Result[T]{}
}

func (r Result[T]) Outcome() Outcome {
	return r.outcome
}

// Value returns the payload; ok is false unless the outcome is success.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.outcome == OutcomeSuccess
}

// ErrorResponse returns the structured error; ok is false unless the
// outcome is error.
func (r Result[T]) ErrorResponse() (ErrorResponse, bool) {
	return r.errResp, r.outcome == OutcomeError
}
