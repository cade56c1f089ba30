package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com"

const maxAmount = 50

// ErrNoResults is returned when the API answers with a non-zero response code.
var ErrNoResults = errors.New("opentdb returned no questions")

type question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type questionsResponse struct {
	ResponseCode int        `json:"response_code"`
	Results      []question `json:"results"`
}

// Client fetches trivia questions and converts them into quiz questions.
type Client struct {
	baseURL string
	http    *http.Client
	mu      sync.Mutex
	rnd     *rand.Rand
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions fetches questions matching q. The correct answer is placed at a random position.
func (c *Client) Questions(ctx context.Context, q domain.ImportQuery) ([]domain.Question, error) {
	params := url.Values{}
	amount := q.Amount
	if amount <= 0 {
		amount = 10
	}
	if amount > maxAmount {
		amount = maxAmount
	}
	params.Set("amount", strconv.Itoa(amount))
	if q.Category > 0 {
		params.Set("category", strconv.Itoa(q.Category))
	}
	if q.Difficulty != "" {
		params.Set("difficulty", q.Difficulty)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	var resp questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != 0 {
		return nil, fmt.Errorf("%w (response code %d)", ErrNoResults, resp.ResponseCode)
	}

	out := make([]domain.Question, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, c.convert(r))
	}
	return out, nil
}

// Categories lists the available trivia categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp struct {
		TriviaCategories []domain.Category `json:"trivia_categories"`
	}
	if err := c.getJSON(ctx, "/api_category.php", &resp); err != nil {
		return nil, err
	}
	return resp.TriviaCategories, nil
}

func (c *Client) convert(r question) domain.Question {
	choices := make([]domain.Choice, 0, len(r.IncorrectAnswers)+1)
	for _, a := range r.IncorrectAnswers {
		choices = append(choices, domain.Choice{Text: html.UnescapeString(a)})
	}

	c.mu.Lock()
	correct := c.rnd.Intn(len(choices) + 1)
	c.mu.Unlock()

	choices = append(choices, domain.Choice{})
	copy(choices[correct+1:], choices[correct:])
	choices[correct] = domain.Choice{Text: html.UnescapeString(r.CorrectAnswer)}

	return domain.Question{
		Prompt:       html.UnescapeString(r.Question),
		Choices:      choices,
		CorrectIndex: correct,
		Points:       pointsFor(r.Difficulty),
	}
}

func pointsFor(difficulty string) int {
	switch difficulty {
	case "hard":
		return 3
	case "medium":
		return 2
	default:
		return 1
	}
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("opentdb request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("opentdb request: unexpected status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("opentdb decode: %w", err)
	}
	return nil
}
