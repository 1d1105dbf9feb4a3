package meta

import "fmt"

// ErrAuthentication represents an error wherein the Buildbot master could
// not authenticate the request.
type ErrAuthentication struct {
	Reason string `json:"error"`
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("Could not authenticate the request: %s", e.Reason)
}

// ErrAuthorization represents an error wherein the authenticated principal is
// not permitted to access the requested resource.
type ErrAuthorization struct {
	Reason string `json:"error"`
}

func (e *ErrAuthorization) Error() string {
	if e.Reason == "" {
		return "The request is not authorized."
	}
	return fmt.Sprintf("The request is not authorized: %s", e.Reason)
}

// ErrBadRequest represents an error wherein the Buildbot master rejected a
// request as malformed, most commonly because of an invalid query.
type ErrBadRequest struct {
	Reason  string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (e *ErrBadRequest) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Bad request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Bad request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

// ErrNotFound represents an error wherein a requested resource or endpoint
// does not exist.
type ErrNotFound struct {
	Type   string `json:"type,omitempty"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"error"`
}

func (e *ErrNotFound) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("Not found: %s", e.Reason)
	}
	return fmt.Sprintf("%s %q not found.", e.Type, e.ID)
}

// ErrConflict represents an error wherein a request could not be completed
// because of the current state of the target resource.
type ErrConflict struct {
	Type   string `json:"type,omitempty"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"error"`
}

func (e *ErrConflict) Error() string {
	return e.Reason
}

// ErrInternalServer represents an unexpected failure on the Buildbot master.
type ErrInternalServer struct {
	Reason string `json:"error"`
}

func (e *ErrInternalServer) Error() string {
	if e.Reason == "" {
		return "An internal server error occurred."
	}
	return fmt.Sprintf("An internal server error occurred: %s", e.Reason)
}

// ErrNotSupported represents an error wherein the Buildbot master does not
// implement the requested operation.
type ErrNotSupported struct {
	Details string `json:"error"`
}

func (e *ErrNotSupported) Error() string {
	return e.Details
}
