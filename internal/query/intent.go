package query

// IntentKind is the variant tag of an Intent.
type IntentKind string

const (
	IntentConversational IntentKind = "conversational"
	IntentAnalytics      IntentKind = "analytics"
	IntentFileAnalysis   IntentKind = "file_analysis"
)

// Intent is the classifier's output. Chart is set only for analytics,
// ContextRef only for file analysis.
type Intent struct {
	Kind       IntentKind
	Chart      ChartKind
	ContextRef string
}

func Conversational() Intent { return Intent{Kind: IntentConversational} }

func Analytics(k ChartKind) Intent { return Intent{Kind: IntentAnalytics, Chart: k} }

func FileAnalysis(ref string) Intent { return Intent{Kind: IntentFileAnalysis, ContextRef: ref} }
