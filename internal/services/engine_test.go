package services

import (
	"codejudge/internal/common"
	"codejudge/internal/models"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestJudge0SubmitBatch(t *testing.T) {
	var got batchSubmitBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/submissions/batch" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("base64_encoded") != "true" {
			t.Errorf("expected base64_encoded=true")
		}
		if r.Header.Get("X-Auth-Token") != "secret" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"token":"a"},{"token":"b"}]`))
	}))
	defer srv.Close()

	client := NewJudge0Client(Judge0Config{BaseURL: srv.URL + "/", AuthToken: "secret", Timeout: time.Second})
	tokens, err := client.SubmitBatch(context.Background(), []models.ExecutionRequest{
		{SourceCode: "eA==", LanguageID: 71, Stdin: "MQ=="},
		{SourceCode: "eA==", LanguageID: 71, Stdin: "Mg=="},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "a" || tokens[1] != "b" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	if len(got.Submissions) != 2 || got.Submissions[1].Stdin != "Mg==" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestJudge0GetBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("tokens") != "a,b" {
			t.Errorf("unexpected tokens query %q", q.Get("tokens"))
		}
		if !strings.Contains(q.Get("fields"), "compile_output") {
			t.Errorf("expected compile_output in fields, got %q", q.Get("fields"))
		}
		if r.Header.Get("X-RapidAPI-Key") != "key" || r.Header.Get("X-RapidAPI-Host") != "judge0.example" {
			t.Errorf("missing rapidapi headers")
		}
		w.Write([]byte(`{"submissions":[
			{"token":"a","status":{"id":3,"description":"Accepted"},"stdout":"Mw==","time":"0.015","memory":1200},
			{"token":"b","status":{"id":2,"description":"Processing"},"stdout":null,"time":null,"memory":null}
		]}`))
	}))
	defer srv.Close()

	client := NewJudge0Client(Judge0Config{BaseURL: srv.URL, RapidAPIKey: "key", RapidHost: "judge0.example"})
	results, err := client.GetBatch(context.Background(), []models.ExecutionToken{"a", "b"})
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].StatusID() != models.EngineStatusAccepted || float64(results[0].Time) != 0.015 || results[0].Memory != 1200 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].IsTerminal() {
		t.Fatalf("processing result must not be terminal")
	}
}

func TestJudge0ErrorsAreEngineUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`},
		{name: "malformed body", status: http.StatusOK, body: `{"submissions":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewJudge0Client(Judge0Config{BaseURL: srv.URL})
			_, err := client.GetBatch(context.Background(), []models.ExecutionToken{"a"})
			if !errors.Is(err, common.ErrEngineUnavailable) {
				t.Fatalf("expected ErrEngineUnavailable, got %v", err)
			}
		})
	}
}

func TestJudge0MissingTokenIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"token":"a"},{"error":"language_id is invalid"}]`))
	}))
	defer srv.Close()

	client := NewJudge0Client(Judge0Config{BaseURL: srv.URL})
	_, err := client.SubmitBatch(context.Background(), []models.ExecutionRequest{{}, {}})
	if !errors.Is(err, common.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestJudge0UnreachableIsEngineUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewJudge0Client(Judge0Config{BaseURL: url, Timeout: time.Second})
	_, err := client.SubmitBatch(context.Background(), []models.ExecutionRequest{{}})
	if !errors.Is(err, common.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}
