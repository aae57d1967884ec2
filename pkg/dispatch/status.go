package dispatch

// Status is the outcome of an authorization check. The zero value is success.
type Status struct {
	failed  bool
	message string
}

// Success returns a passing status.
func Success() Status { return Status{} }

// Failure returns a failing status. An empty message means the failure is
// silent: the caller is not told why nothing happened.
func Failure(message string) Status {
	return Status{failed: true, message: message}
}

func (s Status) OK() bool        { return !s.failed }
func (s Status) Message() string { return s.message }

// Silent reports whether this is a failure that must not be explained.
func (s Status) Silent() bool { return s.failed && s.message == "" }

func (s Status) String() string {
	switch {
	case !s.failed:
		return "success"
	case s.message == "":
		return "error"
	default:
		return "error: " + s.message
	}
}
