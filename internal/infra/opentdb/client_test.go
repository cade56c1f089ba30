package opentdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuestionsDecodesAndPlacesCorrectAnswer(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"category":"Science","type":"multiple","difficulty":"hard",
			 "question":"What is &quot;H2O&quot;?","correct_answer":"Water",
			 "incorrect_answers":["Salt","Sand","Iron &amp; Steel"]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	questions, err := client.Questions(context.Background(), domain.ImportQuery{Amount: 1, Difficulty: "hard"})
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if gotQuery != "amount=1&difficulty=hard" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.Prompt != `What is "H2O"?` {
		t.Fatalf("expected decoded prompt, got %q", q.Prompt)
	}
	if len(q.Choices) != 4 || !q.Valid() {
		t.Fatalf("expected 4 valid choices, got %+v", q)
	}
	if q.Choices[q.CorrectIndex].Text != "Water" {
		t.Fatalf("correct index %d points at %q", q.CorrectIndex, q.Choices[q.CorrectIndex].Text)
	}
	if q.Points != 3 {
		t.Fatalf("expected hard question worth 3, got %d", q.Points)
	}
}

func TestQuestionsNonZeroResponseCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Questions(context.Background(), domain.ImportQuery{})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_category.php" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"trivia_categories":[{"id":9,"name":"General Knowledge"}]}`))
	}))
	defer server.Close()

	cats, err := NewClient(server.URL, time.Second).Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != 9 {
		t.Fatalf("unexpected categories %+v", cats)
	}
}
