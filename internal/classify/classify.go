// Package classify maps user text to an Intent without touching the network.
//
// Resolution order:
//   - explicit command ("CHART:SUBSCRIPTIONS", "grafico:tasks_topics",
//     "/grafico user_videos")
//   - trigger phrases, first matching rule in declaration order
//   - FileAnalysis when the query carries a file context
//   - Conversational
package classify

import (
	"strings"

	"aigateway/internal/query"
)

// Rule maps a set of trigger phrases to one chart kind.
type Rule struct {
	Kind    query.ChartKind
	Phrases []string
}

// DefaultRules is the built-in vocabulary, most specific first.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: query.ChartTasksTopics, Phrases: []string{
			"tareas por tema", "grafico de tareas", "tasks by topic", "tasks per topic",
		}},
		{Kind: query.ChartCourseTopics, Phrases: []string{
			"temas por curso", "grafico de temas", "grafico de cursos", "topics by course", "topics per course",
		}},
		{Kind: query.ChartTopicContent, Phrases: []string{
			"contenido por tema", "videos por tema", "grafico de contenido", "content by topic", "videos by topic",
		}},
		{Kind: query.ChartUserVideos, Phrases: []string{
			"usuarios por curso", "videos por usuario", "grafico de usuarios", "grafico de videos",
			"users by course", "videos by user",
		}},
		{Kind: query.ChartSubscriptions, Phrases: []string{
			"grafico de suscripciones", "grafico de suscripcion", "suscripciones por", "subscriptions chart", "subscriptions by",
		}},
	}
}

var commandPrefixes = []string{"chart:", "grafico:", "/grafico ", "/chart "}

type compiledRule struct {
	kind    query.ChartKind
	phrases []string
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

// New compiles rules; with none given it uses DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{kind: r.Kind}
		for _, p := range r.Phrases {
			if n := Normalize(p); n != "" {
				cr.phrases = append(cr.phrases, n)
			}
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Classify returns exactly one intent for q.
func (c *Classifier) Classify(q query.Query) query.Intent {
	return c.ClassifyText(q.RawText, q.FileContextID)
}

// ClassifyText is Classify over plain fields.
func (c *Classifier) ClassifyText(text, fileContextID string) query.Intent {
	if k, ok := ParseCommand(text); ok {
		return query.Analytics(k)
	}
	if k, ok := c.Match(text); ok {
		return query.Analytics(k)
	}
	if ref := strings.TrimSpace(fileContextID); ref != "" {
		return query.FileAnalysis(ref)
	}
	return query.Conversational()
}

// Match runs the trigger phrases only.
func (c *Classifier) Match(text string) (query.ChartKind, bool) {
	n := Normalize(text)
	if n == "" {
		return "", false
	}
	for _, r := range c.rules {
		for _, p := range r.phrases {
			if ContainsPhrase(n, p) {
				return r.kind, true
			}
		}
	}
	return "", false
}

// ParseCommand recognizes the explicit chart command syntax. The kind must
// be a protocol identifier; "-" and spaces are accepted for "_".
func ParseCommand(text string) (query.ChartKind, bool) {
	t := strings.ToLower(fold(strings.TrimSpace(text)))
	for _, p := range commandPrefixes {
		if !strings.HasPrefix(t, p) {
			continue
		}
		arg := strings.TrimSpace(t[len(p):])
		arg = strings.Join(strings.Fields(strings.ReplaceAll(arg, "-", " ")), "_")
		return query.ParseChartKind(arg)
	}
	return "", false
}
