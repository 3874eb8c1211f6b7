package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/metrics"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/dgallion1/cvparse/internal/pipeline"
	"github.com/dgallion1/cvparse/internal/store"
)

const testKey = "secret"

const janeReply = "```json\n" + `{"full_name": "Jane Doe", "email": "JANE@example.com", "phone_number": "555-0100",
"education": [{"degree": "BSc", "institution": "MIT", "year": 2019}],
"skills": ["Go", "go", "SQL"], "experience": []}` + "\n```"

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Model() string { return "stub" }

func (s *stubLLM) Complete(context.Context, string) (string, error) {
	return s.reply, s.err
}

func newTestServer(t *testing.T, llm extract.Completer) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         testKey,
		LLMProvider:    config.ProviderGroq,
		MaxUploadBytes: 1 << 20,
		ChunkSize:      1000,
		ChunkOverlap:   100,
		ExtractMode:    "whole",
	}
	m := metrics.New()
	runner := pipeline.NewRunner(llm, store.NewMemoryStore(time.Hour), log, pipeline.RunnerOptions{
		Parser:  parser.Options{},
		Metrics: m,
	})
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{Workers: 2, QueueSize: 4}, runner, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, m, log, cfg)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, field, filename, content string, values map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body: %v\n%s", err, rec.Body.String())
	}
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["model"] != "stub" {
		t.Errorf("model = %v", body["model"])
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected go collector output")
	}
}

func TestChunkEndpoint(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	body := `{"text": "The quick brown fox jumps over the lazy dog", "chunk_size": 20, "overlap": 5}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/chunk", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Count  int             `json:"count"`
		Chunks []chunker.Chunk `json:"chunks"`
	}
	decodeBody(t, rec, &got)
	want := []string{"The quick brown fox ", "fox jumps over the ", "the lazy dog"}
	if got.Count != len(want) {
		t.Fatalf("count = %d, want %d", got.Count, len(want))
	}
	for i, c := range got.Chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, want[i])
		}
	}
	if got.Chunks[1].Start != 16 {
		t.Errorf("chunk 1 start = %d, want 16", got.Chunks[1].Start)
	}
}

func TestChunkEndpointRejectsBadConfig(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	tests := []string{
		`{"text": "abc", "chunk_size": 0}`,
		`{"text": "abc", "chunk_size": 10, "overlap": 10}`,
		`{"text": "abc", "chunk_size": 10, "overlap": -1}`,
		`not json`,
	}
	for _, body := range tests {
		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/chunk", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestParseAndResultLifecycle(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})

	req := uploadRequest(t, "/api/parse", "file", "jane.txt", "Jane Doe\nJANE@example.com\n\nSkills\nGo, SQL\n", nil)
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var out pipeline.Output
	decodeBody(t, rec, &out)
	if out.Result.Status != extract.StatusDecoded {
		t.Fatalf("result status = %s: %s", out.Result.Status, out.Result.Error)
	}
	rec2 := out.Result.Record
	if rec2.FullName != "Jane Doe" || rec2.Email != "jane@example.com" {
		t.Errorf("record = %+v", rec2)
	}
	if len(rec2.Skills) != 2 {
		t.Errorf("skills = %v, want de-duplicated", rec2.Skills)
	}
	if rec2.Education[0].Year != "2019" {
		t.Errorf("year = %q", rec2.Education[0].Year)
	}
	if out.Chunks != nil {
		t.Error("chunks should be omitted by default")
	}
	if out.Key == "" {
		t.Fatal("missing result key")
	}

	get := do(t, s, httptest.NewRequest(http.MethodGet, "/api/results/"+out.Key, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("get status = %d", get.Code)
	}
	var entry store.Entry
	decodeBody(t, get, &entry)
	if entry.Title != "jane" {
		t.Errorf("entry title = %q", entry.Title)
	}

	del := do(t, s, httptest.NewRequest(http.MethodDelete, "/api/results/"+out.Key, nil))
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", del.Code)
	}
	again := do(t, s, httptest.NewRequest(http.MethodGet, "/api/results/"+out.Key, nil))
	if again.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", again.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodDelete, "/api/results/"+out.Key, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestParseIncludeChunks(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})

	req := uploadRequest(t, "/api/parse", "file", "jane.txt", "Jane Doe, Go developer.", map[string]string{
		"include_chunks": "true",
		"chunk_size":     "10",
		"overlap":        "2",
		"mode":           "whole",
	})
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out pipeline.Output
	decodeBody(t, rec, &out)
	if len(out.Chunks) < 2 || out.ChunkCount != len(out.Chunks) {
		t.Errorf("chunks = %d, chunk_count = %d", len(out.Chunks), out.ChunkCount)
	}
	if out.Options.ChunkSize != 10 || out.Options.ChunkOverlap != 2 {
		t.Errorf("options = %+v", out.Options)
	}
}

func TestParseDecodeFailureIsStillOK(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: "I could not find a résumé here."})

	rec := do(t, s, uploadRequest(t, "/api/parse", "file", "cv.md", "# Jane\n\nSome text", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out pipeline.Output
	decodeBody(t, rec, &out)
	if out.Result.Status != extract.StatusDecodeFailed {
		t.Fatalf("result status = %s", out.Result.Status)
	}
	if out.Result.Raw != "I could not find a résumé here." {
		t.Errorf("raw = %q", out.Result.Raw)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		llm      *stubLLM
		filename string
		content  string
		values   map[string]string
		want     int
	}{
		{"unsupported format", &stubLLM{reply: janeReply}, "cv.xls", "x", nil, http.StatusUnsupportedMediaType},
		{"bad chunk size", &stubLLM{reply: janeReply}, "cv.txt", "x", map[string]string{"chunk_size": "abc"}, http.StatusBadRequest},
		{"overlap too big", &stubLLM{reply: janeReply}, "cv.txt", "x", map[string]string{"chunk_size": "5", "overlap": "5"}, http.StatusBadRequest},
		{"bad mode", &stubLLM{reply: janeReply}, "cv.txt", "x", map[string]string{"mode": "fanout"}, http.StatusBadRequest},
		{"empty document", &stubLLM{reply: janeReply}, "cv.txt", "\n\n  \n", nil, http.StatusUnprocessableEntity},
		{"llm error", &stubLLM{err: errors.New("boom")}, "cv.txt", "Jane", nil, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.llm)
			rec := do(t, s, uploadRequest(t, "/api/parse", "file", tt.filename, tt.content, tt.values))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestIngestLifecycle(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})

	rec := do(t, s, uploadRequest(t, "/api/ingest", "file", "jane.txt", "Jane Doe\njane@example.com\n", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decodeBody(t, rec, &accepted)
	if accepted.PollURL != fmt.Sprintf("/api/ingest/%s/status", accepted.JobID) {
		t.Errorf("poll_url = %q", accepted.PollURL)
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.JobSnapshot
	for {
		st := do(t, s, httptest.NewRequest(http.MethodGet, accepted.PollURL, nil))
		if st.Code != http.StatusOK {
			t.Fatalf("status poll = %d", st.Code)
		}
		decodeBody(t, st, &snap)
		if snap.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("job status = %s, errors = %v", snap.Status, snap.Progress.Errors)
	}

	res := do(t, s, httptest.NewRequest(http.MethodGet, "/api/ingest/"+accepted.JobID+"/result", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("result status = %d", res.Code)
	}
	var out pipeline.Output
	decodeBody(t, res, &out)
	if out.Result.Record == nil || out.Result.Record.FullName != "Jane Doe" {
		t.Errorf("result = %+v", out.Result)
	}
	if snap.ResultKey != out.Key {
		t.Errorf("result_key = %q, want %q", snap.ResultKey, out.Key)
	}
}

func TestIngestUnknownJob(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})
	for _, path := range []string{"/api/ingest/nope/status", "/api/ingest/nope/result"} {
		if rec := do(t, s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestBatchIngest(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"a.txt", "b.exe", "../../c.md"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, "Jane Doe")
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decodeBody(t, rec, &got)
	if len(got.Jobs) != 3 {
		t.Fatalf("jobs = %d, want 3", len(got.Jobs))
	}
	if got.Jobs[0]["job_id"] == nil {
		t.Errorf("a.txt not queued: %v", got.Jobs[0])
	}
	if got.Jobs[1]["error"] == nil {
		t.Errorf("b.exe should be rejected: %v", got.Jobs[1])
	}
	if got.Jobs[2]["filename"] != "c.md" {
		t.Errorf("filename = %v, want sanitized c.md", got.Jobs[2]["filename"])
	}
}

func TestLLMStatsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubLLM{reply: janeReply})
	do(t, s, uploadRequest(t, "/api/parse", "file", "jane.txt", "Jane Doe", nil))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Model string `json:"model"`
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	decodeBody(t, rec, &got)
	if got.Model != "stub" || got.Stats.Count != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{chunker.Config{ChunkSize: 0}.Validate(), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", parser.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{pipeline.ErrEmptyDocument, http.StatusUnprocessableEntity},
		{pipeline.ErrQueueFull, http.StatusServiceUnavailable},
		{&extract.RetryableError{StatusCode: 503}, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"cv.pdf":            "cv.pdf",
		"../../etc/cv.pdf":  "cv.pdf",
		`C:\Users\me\cv.md`: "cv.md",
		"":                  "unnamed",
		"a..b.txt":          "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
