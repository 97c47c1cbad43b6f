package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"aigateway/internal/gateway"
	"aigateway/pkg/types"
)

func ask(t *testing.T, s *stack, session, text, fileRef string) types.QueryResponse {
	t.Helper()
	payload := fmt.Sprintf(`{"session_id":%q,"text":%q,"file_context_id":%q}`, session, text, fileRef)
	resp, body := httpDo(t, http.MethodPost, s.api.URL+"/v1/query", []byte(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query status=%d body=%s", resp.StatusCode, body)
	}
	var out types.QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func status(t *testing.T, s *stack, method, path string) types.StatusResponse {
	t.Helper()
	resp, body := httpDo(t, method, s.api.URL+path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s status=%d", path, resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return st
}

// TestE2E_ChatFlow covers a plain conversation: inference runs, both sides
// are stored in order and the conversation context is carried forward.
func TestE2E_ChatFlow(t *testing.T) {
	s := newStack(t)

	first := ask(t, s, "s1", "hola", "")
	if first.Kind != "text" || first.Text != "Claro, te ayudo con eso." {
		t.Fatalf("first=%+v", first)
	}
	if !strings.Contains(s.ollama.body(), `"stream":false`) || strings.Contains(s.ollama.body(), `"context"`) {
		t.Fatalf("first payload=%s", s.ollama.body())
	}

	ask(t, s, "s1", "¿y ahora?", "")
	if !strings.Contains(s.ollama.body(), `"context":[7,8,9]`) {
		t.Fatalf("context not carried: %s", s.ollama.body())
	}

	resp, body := httpDo(t, http.MethodGet, s.api.URL+"/v1/sessions/s1/messages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status=%d", resp.StatusCode)
	}
	var hist types.MessagesResponse
	if err := json.Unmarshal(body, &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist.Messages) != 4 {
		t.Fatalf("messages=%d", len(hist.Messages))
	}
	authors := []string{"user", "system", "user", "system"}
	for i, m := range hist.Messages {
		if m.Author != authors[i] {
			t.Fatalf("message %d author=%s", i, m.Author)
		}
		if i > 0 && m.Seq <= hist.Messages[i-1].Seq {
			t.Fatalf("seq not increasing at %d", i)
		}
	}

	st := status(t, s, http.MethodGet, "/v1/status")
	if !st.Connected || !st.ModelPresent || len(st.InstalledModels) != 2 {
		t.Fatalf("status=%+v", st)
	}
}

func TestE2E_ChartNeverInfers(t *testing.T) {
	s := newStack(t)
	out := ask(t, s, "s1", "Crear gráfico de suscripciones", "")
	if out.Kind != "chart" || out.Chart != "SUBSCRIPTIONS" || out.Intent != "analytics" {
		t.Fatalf("out=%+v", out)
	}
	out = ask(t, s, "s1", "/grafico user-videos", "")
	if out.Chart != "USER_VIDEOS" {
		t.Fatalf("command chart=%+v", out)
	}
	if n := s.ollama.generates.Load(); n != 0 {
		t.Fatalf("generates=%d", n)
	}
}

func TestE2E_FileAnalysis(t *testing.T) {
	s := newStack(t)
	resp, body := httpDo(t, http.MethodPost, s.api.URL+"/v1/files",
		[]byte(`{"file_name":"notas.txt","file_type":"text/plain","extracted_text":"La fotosíntesis ocurre en los cloroplastos.","metadata":{"pages":"1"}}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("files status=%d body=%s", resp.StatusCode, body)
	}
	var fc types.FileContextResponse
	if err := json.Unmarshal(body, &fc); err != nil || fc.ID == "" {
		t.Fatalf("file response=%s err=%v", body, err)
	}

	out := ask(t, s, "s2", "resume el documento", fc.ID)
	if out.Kind != "text" || out.Intent != "file_analysis" {
		t.Fatalf("out=%+v", out)
	}
	sent := s.ollama.body()
	for _, want := range []string{"notas.txt", "cloroplastos", "pages: 1", "resume el documento"} {
		if !strings.Contains(sent, want) {
			t.Errorf("prompt missing %q: %s", want, sent)
		}
	}

	out = ask(t, s, "s2", "resume el documento", "no-such-file")
	if out.Kind != "degraded" || out.Reason != "inference_failure" {
		t.Fatalf("missing file out=%+v", out)
	}
}

// TestE2E_ServerGoesAway walks the connection state: the endpoint drops
// mid-session, answers degrade, and a retry reconnects once it is back.
func TestE2E_ServerGoesAway(t *testing.T) {
	s := newStack(t)
	if out := ask(t, s, "s1", "hola", ""); out.Kind != "text" {
		t.Fatalf("warmup=%+v", out)
	}

	s.ollama.down.Store(true)
	out := ask(t, s, "s1", "¿sigues ahí?", "")
	if out.Kind != "degraded" || out.Reason != "inference_failure" {
		t.Fatalf("during outage=%+v", out)
	}
	out = ask(t, s, "s1", "hola", "")
	if out.Kind != "degraded" || out.Reason != "server_unreachable" || !strings.Contains(out.Text, "ollama serve") {
		t.Fatalf("after outage=%+v", out)
	}
	if resp, _ := httpDo(t, http.MethodGet, s.api.URL+"/readyz", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz=%d", resp.StatusCode)
	}
	st := status(t, s, http.MethodGet, "/v1/status")
	if st.Connected || st.LastReason != "server_unreachable" || st.LastErrorAt == nil {
		t.Fatalf("status=%+v", st)
	}

	s.ollama.down.Store(false)
	st = status(t, s, http.MethodPost, "/v1/connection/retry")
	if !st.Connected || !st.ModelPresent {
		t.Fatalf("after retry=%+v", st)
	}
	if out := ask(t, s, "s1", "hola", ""); out.Kind != "text" {
		t.Fatalf("recovered=%+v", out)
	}
	if resp, _ := httpDo(t, http.MethodGet, s.api.URL+"/readyz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz=%d", resp.StatusCode)
	}
}

func TestE2E_ModelMissing(t *testing.T) {
	s := newStack(t)
	s.ollama.noModel.Store(true)
	out := ask(t, s, "s1", "hola", "")
	if out.Kind != "degraded" || out.Reason != "model_missing" || !strings.Contains(out.Text, "ollama pull llama3.2") {
		t.Fatalf("out=%+v", out)
	}
	if n := s.ollama.generates.Load(); n != 0 {
		t.Fatalf("generates=%d", n)
	}
	// classification waits for both preconditions, so charts degrade too
	if out := ask(t, s, "s1", "gráfico de tareas por tema", ""); out.Kind != "degraded" || out.Reason != "model_missing" {
		t.Fatalf("chart=%+v", out)
	}
}

func TestE2E_ForeignWebServerIsNotConnected(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"no banner": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("<html>intranet</html>"))
		},
		"banner without api": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("Ollama is running"))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			s := newStackFor(t, h)
			for i := 0; i < 2; i++ {
				out := ask(t, s, "s1", "hola", "")
				if out.Kind != "degraded" || out.Reason != "server_unreachable" || !strings.Contains(out.Text, "ollama serve") {
					t.Fatalf("call %d: out=%+v", i, out)
				}
			}
			if st := status(t, s, http.MethodGet, "/v1/status"); st.Connected {
				t.Fatalf("status reports connected: %+v", st)
			}
		})
	}
}

func TestE2E_ClearResetsSession(t *testing.T) {
	s := newStack(t)
	ask(t, s, "s1", "hola", "")
	ask(t, s, "s2", "hola", "")

	resp, body := httpDo(t, http.MethodDelete, s.api.URL+"/v1/sessions/s1/messages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status=%d", resp.StatusCode)
	}
	var cl types.ClearResponse
	if err := json.Unmarshal(body, &cl); err != nil || cl.Deleted != 2 {
		t.Fatalf("clear=%s err=%v", body, err)
	}
	_, body = httpDo(t, http.MethodGet, s.api.URL+"/v1/sessions/s1/messages", nil)
	if !strings.Contains(string(body), `"messages":[]`) {
		t.Fatalf("s1 history=%s", body)
	}
	_, body = httpDo(t, http.MethodGet, s.api.URL+"/v1/sessions/s2/messages", nil)
	var other types.MessagesResponse
	if err := json.Unmarshal(body, &other); err != nil || len(other.Messages) != 2 {
		t.Fatalf("s2 history=%s", body)
	}

	found := false
	for _, ev := range s.events.Events() {
		if ev.Name == gateway.EventSessionReset && ev.SessionID == "s1" {
			found = true
		}
	}
	if !found {
		t.Fatal("session_reset event not published")
	}

	// the fresh session starts without conversation context
	ask(t, s, "s1", "hola", "")
	if strings.Contains(s.ollama.body(), `"context"`) {
		t.Fatalf("context survived clear: %s", s.ollama.body())
	}
}

func TestE2E_WebsocketChat(t *testing.T) {
	s := newStack(t)
	u := "ws" + strings.TrimPrefix(s.api.URL, "http") + "/v1/chat/ws?session_id=ws1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	for _, text := range []string{"hola", "gráfico de contenido por tema"} {
		if err := conn.WriteJSON(types.ChatFrame{Type: "ask", Text: text}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var first, second types.ChatFrame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Answer == nil || first.Answer.Kind != "text" {
		t.Fatalf("first=%+v", first)
	}
	if second.Answer == nil || second.Answer.Chart != "TOPIC_CONTENT" {
		t.Fatalf("second=%+v", second)
	}

	_, body := httpDo(t, http.MethodGet, s.api.URL+"/v1/sessions/ws1/messages", nil)
	var hist types.MessagesResponse
	if err := json.Unmarshal(body, &hist); err != nil || len(hist.Messages) != 4 {
		t.Fatalf("history=%s err=%v", body, err)
	}
}

func TestE2E_ConcurrentSessions(t *testing.T) {
	s := newStack(t)
	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			payload := fmt.Sprintf(`{"session_id":"c%d","text":"hola %d"}`, i, i)
			req, _ := http.NewRequest(http.MethodPost, s.api.URL+"/v1/query", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("session %d: status %d", i, resp.StatusCode)
				return
			}
			errs <- nil
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
	if got := s.ollama.generates.Load(); got != n {
		t.Fatalf("generates=%d", got)
	}
}
