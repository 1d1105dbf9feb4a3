package results

// Status holds the fields of a build or step that determine its displayed
// outcome.
type Status struct {
	// Results is the code assigned by the master on completion.
	Results  *Code
	Complete bool
	// StartedAt is a unix timestamp. Zero means not started.
	StartedAt int64
}

// ResultStatus allows a bare Status to be classified.
func (s *Status) ResultStatus() *Status {
	return s
}

// Reporter is implemented by anything whose outcome can be classified. A nil
// *Status return is treated the same as a nil Reporter.
type Reporter interface {
	ResultStatus() *Status
}

func statusOf(r Reporter) *Status {
	if r == nil {
		return nil
	}
	return r.ResultStatus()
}

// ResultsOf classifies r. A recognized result code always wins. Otherwise an
// entity that has started but not completed is Pending. Anything else,
// including an absent entity, yields fallback.
func ResultsOf(r Reporter, fallback Code) Code {
	status := statusOf(r)
	if status == nil {
		return fallback
	}
	if status.Results != nil && status.Results.Known() {
		return *status.Results
	}
	if !status.Complete && status.StartedAt > 0 {
		return Pending
	}
	return fallback
}

// ClassNameFor returns the display class for r's outcome, e.g.
// "results_FAILURE". When r is Pending and pulse is non-empty, pulse is
// appended as a second class.
func ClassNameFor(r Reporter, pulse string) string {
	code := ResultsOf(r, Unknown)
	className := "results_" + code.String()
	if code == Pending && pulse != "" {
		className += " " + pulse
	}
	return className
}

// TextFor returns the label of r's recorded result. It does not consider
// whether r is in progress; anything without a recognized result renders as
// Placeholder.
func TextFor(r Reporter) string {
	status := statusOf(r)
	if status == nil || status.Results == nil || !status.Results.Known() {
		return Placeholder
	}
	return status.Results.String()
}

// ColorFor returns the display color of r's classified outcome.
func ColorFor(r Reporter) string {
	return ResultsOf(r, Unknown).Color()
}
