package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Value is the hydrated value as a JSON tree (see format.ToAny).
	// Nil when hydration failed.
	Value any `json:"value,omitempty"`

	// ErrorCode is the hydration error code, or the first layout
	// validation code when the layouts are invalid.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the full message of the hydration failure.
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether hydration produced an error.
func (r *Result) Failed() bool {
	return r.ErrorCode != ""
}
