// Package fallback produces the rule-based replies used whenever a query
// cannot go through inference. Replies are exactly reproducible: the same
// query, intent and reason always yield the same text.
package fallback

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"aigateway/internal/classify"
	"aigateway/internal/query"
)

// Topic names a canned conversational rule.
type Topic string

const (
	TopicGreeting Topic = "greeting"
	TopicThanks   Topic = "thanks"
	TopicGoodbye  Topic = "goodbye"
	TopicHelp     Topic = "help"
	TopicTask     Topic = "task"
	TopicGrade    Topic = "grade"
	TopicCourse   Topic = "course"
	TopicGeneric  Topic = "generic"
)

type rule struct {
	topic    Topic
	keywords []string
	reply    string
}

var rules = []rule{
	{TopicGreeting, []string{"hola", "buenos dias", "buenas tardes", "buenas noches", "buenas", "hello", "hi"},
		"¡Hola! Soy el asistente de la plataforma. Puedo ayudarte con tus cursos, tareas y calificaciones."},
	{TopicThanks, []string{"gracias", "muchas gracias", "thanks", "thank you"},
		"¡De nada! Si necesitas algo más, aquí estaré."},
	{TopicGoodbye, []string{"adios", "chao", "chau", "hasta luego", "hasta pronto", "bye"},
		"¡Hasta luego! Que tengas un buen día de estudio."},
	{TopicHelp, []string{"ayuda", "ayudame", "help"},
		"Puedo orientarte sobre cursos, tareas y calificaciones, y generar gráficos como \"crear gráfico de suscripciones\" o \"tareas por tema\"."},
	{TopicTask, []string{"tarea", "tareas", "task", "tasks"},
		"Puedes revisar tus tareas pendientes y sus fechas de entrega en la sección Tareas de cada curso."},
	{TopicGrade, []string{"nota", "notas", "calificacion", "calificaciones", "grade", "grades"},
		"Tus calificaciones están disponibles en la sección Notas de cada curso una vez que el docente las publica."},
	{TopicCourse, []string{"curso", "cursos", "course", "courses"},
		"Puedes explorar los cursos disponibles y tus inscripciones desde la pantalla Cursos."},
}

var genericPool = []string{
	"Entiendo tu consulta. En cuanto el asistente esté disponible podré darte una respuesta más completa.",
	"Buena pregunta. Por ahora solo puedo ofrecer respuestas básicas sobre cursos, tareas y calificaciones.",
	"Tomé nota de tu mensaje. Puedes preguntarme por tus cursos, tareas o notas mientras tanto.",
	"No tengo una respuesta detallada en este momento, pero puedo ayudarte con la navegación de la plataforma.",
	"Gracias por tu mensaje. Intenta de nuevo en unos minutos para obtener una respuesta del asistente.",
}

// Responder builds fallback replies. Model is the required model name used
// in install hints.
type Responder struct {
	Model string
}

// New returns a Responder whose hints mention model.
func New(model string) *Responder { return &Responder{Model: model} }

// Respond never returns an empty string.
func (r *Responder) Respond(q query.Query, in query.Intent, reason query.Reason) string {
	var body string
	switch in.Kind {
	case query.IntentAnalytics:
		body = fmt.Sprintf("No puedo generar el gráfico de %s en este momento: %s. No se mostrarán datos estimados.",
			in.Chart.Title(), r.precondition(reason))
	case query.IntentFileAnalysis:
		body = fmt.Sprintf("No puedo analizar el archivo adjunto en este momento: %s.", r.precondition(reason))
	default:
		body, _ = Conversational(q.RawText)
	}
	if notice := r.Notice(reason); notice != "" {
		return body + "\n\n" + notice
	}
	return body
}

// Conversational applies the keyword rules in order, then the generic pool.
// The pool pick hashes the normalized text, so it varies across queries but
// not across repeats.
func Conversational(text string) (string, Topic) {
	n := classify.Normalize(text)
	for _, ru := range rules {
		for _, kw := range ru.keywords {
			if classify.ContainsPhrase(n, kw) {
				return ru.reply, ru.topic
			}
		}
	}
	idx := xxhash.Sum64String(n) % uint64(len(genericPool))
	return genericPool[idx], TopicGeneric
}

// Notice is the reason-specific hint appended to every degraded reply.
func (r *Responder) Notice(reason query.Reason) string {
	switch reason {
	case query.ReasonServerUnreachable:
		return "(No se pudo conectar con el servidor de IA. Inícialo con `ollama serve` y pulsa \"Reintentar conexión\".)"
	case query.ReasonModelMissing:
		return fmt.Sprintf("(El servidor de IA está activo pero no tiene instalado el modelo %s. Instálalo con `ollama pull %s`.)",
			r.model(), r.model())
	case query.ReasonInferenceFailure:
		return "(Ocurrió un error mientras se generaba la respuesta. Vuelve a intentarlo.)"
	default:
		return ""
	}
}

func (r *Responder) precondition(reason query.Reason) string {
	switch reason {
	case query.ReasonServerUnreachable:
		return "el servidor de IA no está disponible"
	case query.ReasonModelMissing:
		return fmt.Sprintf("falta el modelo %s en el servidor de IA", r.model())
	case query.ReasonInferenceFailure:
		return "la generación de la respuesta falló"
	default:
		return "el servicio no está disponible"
	}
}

func (r *Responder) model() string {
	if m := strings.TrimSpace(r.Model); m != "" {
		return m
	}
	return "requerido"
}
