package domain

import "time"

// Choice is one selectable answer option for a question.
type Choice struct {
	Text string `json:"text"`
}

// Question models a multiple choice question with exactly one correct choice.
type Question struct {
	Prompt       string   `json:"prompt"`
	Choices      []Choice `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	Points       int      `json:"points,omitempty"` // defaults to 1 if zero
}

// Worth returns the points a correct answer earns.
func (q Question) Worth() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Valid reports whether the question has at least two choices and an in-range correct index.
func (q Question) Valid() bool {
	return len(q.Choices) >= 2 && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Choices) && q.Points >= 0
}

// Quiz is an ordered collection of questions owned by its author.
type Quiz struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Published   bool       `json:"published"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Playable reports whether the quiz can be played: published, with at least
// one question and every question well formed.
func (q Quiz) Playable() bool {
	if !q.Published || len(q.Questions) == 0 {
		return false
	}
	for _, question := range q.Questions {
		if !question.Valid() {
			return false
		}
	}
	return true
}

// Answer is the choice index a player selected for a question.
type Answer int

// Unanswered marks a question the player skipped.
const Unanswered Answer = -1

// Score is the result of scoring one play-through.
type Score struct {
	Score       int     `json:"score"`
	TotalPoints int     `json:"totalPoints"`
	Percentage  float64 `json:"percentage"`
}

// Attempt is one completed play-through of a quiz by a user.
type Attempt struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"totalPoints"`
	Percentage  float64   `json:"percentage"`
	TimeTaken   int       `json:"timeTaken"` // seconds
	CreatedAt   time.Time `json:"date"`
}

// Rank is a qualitative label derived from a user's average percentage.
type Rank string

const (
	RankQuizGod Rank = "Quiz God"
	RankMaster  Rank = "Master"
	RankExpert  Rank = "Expert"
	RankSkilled Rank = "Skilled"
	RankLearner Rank = "Learner"
)

// Stats summarizes a user's attempt history.
type Stats struct {
	TotalAttempts int     `json:"totalAttempts"`
	AverageScore  int     `json:"averageScore"`
	HighestScore  float64 `json:"highestScore"`
	PerfectScores int     `json:"perfectScores"`
	Rank          Rank    `json:"rank"`
}

// AttemptList is a snapshot of a user's attempts, newest first.
type AttemptList struct {
	UserID    string    `json:"userId"`
	Attempts  []Attempt `json:"attempts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ImportQuery selects questions from an external trivia provider.
type ImportQuery struct {
	Amount     int    `json:"amount"`
	Category   int    `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // easy, medium, hard
	Type       string `json:"type,omitempty"`       // multiple, boolean
}

// Category is a topic offered by the trivia provider.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
