package query

import "strings"

// ChartKind names one supported analytics aggregation + visualization.
// The string values are a stable protocol shared with the UI.
type ChartKind string

const (
	ChartUserVideos    ChartKind = "USER_VIDEOS"
	ChartTopicContent  ChartKind = "TOPIC_CONTENT"
	ChartCourseTopics  ChartKind = "COURSE_TOPICS"
	ChartTasksTopics   ChartKind = "TASKS_TOPICS"
	ChartSubscriptions ChartKind = "SUBSCRIPTIONS"
)

// ChartKinds lists every supported kind in protocol order.
func ChartKinds() []ChartKind {
	return []ChartKind{ChartUserVideos, ChartTopicContent, ChartCourseTopics, ChartTasksTopics, ChartSubscriptions}
}

// ParseChartKind accepts a protocol identifier in any case.
func ParseChartKind(s string) (ChartKind, bool) {
	k := ChartKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range ChartKinds() {
		if c == k {
			return c, true
		}
	}
	return "", false
}

// Title is the human label used in chart summaries.
func (k ChartKind) Title() string {
	switch k {
	case ChartUserVideos:
		return "usuarios y videos por curso"
	case ChartTopicContent:
		return "contenido por tema"
	case ChartCourseTopics:
		return "temas por curso"
	case ChartTasksTopics:
		return "tareas por tema"
	case ChartSubscriptions:
		return "suscripciones"
	default:
		return strings.ToLower(string(k))
	}
}

// ChartPoint is one labeled value of an aggregated series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartData is what the aggregation collaborator returns for a chart kind.
type ChartData struct {
	Kind   ChartKind    `json:"kind"`
	Points []ChartPoint `json:"points"`
}
