package profiles

import "time"

// Profile is the structured summary used to condition roadmap and resource generation.
type Profile struct {
	Age              int      `json:"age" validate:"required"`
	Location         string   `json:"location" validate:"required"`
	Goals            string   `json:"goals" validate:"required"`
	Interests        []string `json:"interests" validate:"required,min=1"`
	AcademicStanding string   `json:"academicStanding" validate:"required"`
	LearningStyle    string   `json:"learningStyle" validate:"required"`
	TimeAvailability string   `json:"timeAvailability" validate:"required"`
}

// TurnInput is one step of the elicitation conversation.
type TurnInput struct {
	PreviousAnswers []string `json:"previousAnswers"`
	CurrentQuestion string   `json:"currentQuestion,omitempty"`
	// Background is optional free text, typically extracted from a resume.
	Background string `json:"background,omitempty"`
}

// TurnOutput is the model's decision for one step.
// Profile is set only when IsProfileComplete is true.
type TurnOutput struct {
	NextQuestion      string   `json:"nextQuestion"`
	Profile           *Profile `json:"profile,omitempty"`
	IsProfileComplete bool     `json:"isProfileComplete"`
}

// Session is a server-side elicitation conversation.
// Answers[i] answers Questions[i]; CurrentQuestion is the last unanswered question.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"-"`
	Questions       []string  `json:"questions"`
	Answers         []string  `json:"answers"`
	CurrentQuestion string    `json:"currentQuestion,omitempty"`
	Background      string    `json:"-"`
	HasBackground   bool      `json:"hasBackground"`
	ResumeKey       string    `json:"-"`
	Profile         *Profile  `json:"profile,omitempty"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
