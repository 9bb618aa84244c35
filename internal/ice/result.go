package ice

// FailureKind classifies why a fallback analysis failed.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindUnavailable
	KindInvalidTarget
	KindNotInReference
	KindFileNotFound
	KindMissingInput
	KindParse
	KindIO
	KindFailed
)

var kindNames = [...]string{
	KindNone:           "none",
	KindUnavailable:    "unavailable",
	KindInvalidTarget:  "invalid-target",
	KindNotInReference: "not-in-reference",
	KindFileNotFound:   "file-not-found",
	KindMissingInput:   "missing-input",
	KindParse:          "parse",
	KindIO:             "io",
	KindFailed:         "failed",
}

func (k FailureKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Result is the outcome of one fallback analysis. EditPercent and FitQuality
// are only meaningful when OK.
type Result struct {
	OK          bool
	Kind        FailureKind
	Detail      string
	EditPercent float64
	FitQuality  float64
}

func failure(kind FailureKind, detail string) Result {
	return Result{Kind: kind, Detail: detail}
}
