package indigo

// FailureKind classifies why a primary analysis failed.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindTimeout
	KindStale
	KindVerifyFailed
	KindServiceError
	KindSessionLost
	KindIO
	KindUnexpected
)

var kindNames = [...]string{
	KindNone:         "none",
	KindTimeout:      "timeout",
	KindStale:        "stale-element",
	KindVerifyFailed: "verify-failed",
	KindServiceError: "service-error",
	KindSessionLost:  "session-lost",
	KindIO:           "io",
	KindUnexpected:   "unexpected",
}

func (k FailureKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Result is the outcome of one primary analysis.
type Result struct {
	OK         bool
	Kind       FailureKind
	Detail     string
	OutputPath string
	Downloaded bool // result came from the download link, not the page
}

// SessionFatal reports whether the browser session must be replaced.
func (r Result) SessionFatal() bool { return r.Kind == KindSessionLost }

func failure(kind FailureKind, detail string) Result {
	return Result{Kind: kind, Detail: detail}
}
