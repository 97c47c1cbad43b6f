package query

// ResultKind is the variant tag of a Result.
type ResultKind string

const (
	KindText     ResultKind = "text"
	KindChart    ResultKind = "chart"
	KindDegraded ResultKind = "degraded"
)

// Reason explains why a degraded answer was produced.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonServerUnreachable Reason = "server_unreachable"
	ReasonModelMissing      Reason = "model_missing"
	ReasonInferenceFailure  Reason = "inference_failure"
)

// Result is the outcome of one gateway call. Exactly one variant is
// populated, selected by Kind.
type Result struct {
	Kind   ResultKind
	Text   string
	Chart  ChartKind
	Data   *ChartData
	Reason Reason
	Intent Intent
}

func TextAnswer(text string, in Intent) Result {
	return Result{Kind: KindText, Text: text, Intent: in}
}

func ChartAnswer(k ChartKind, summary string, data *ChartData) Result {
	return Result{Kind: KindChart, Chart: k, Text: summary, Data: data, Intent: Analytics(k)}
}

func DegradedAnswer(text string, reason Reason, in Intent) Result {
	return Result{Kind: KindDegraded, Text: text, Reason: reason, Intent: in}
}

// Degraded reports whether the answer was produced without inference.
func (r Result) Degraded() bool { return r.Kind == KindDegraded }
