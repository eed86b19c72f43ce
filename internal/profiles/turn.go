package profiles

import (
	"encoding/json"
	"fmt"
	"strings"

	"careermap-backend/internal/llm"
)

const turnPromptVersion = "v1"

// turnPayload is the wire shape requested from the model. profile is nullable,
// so strict mode stays off and completeness is checked after decoding.
type turnPayload struct {
	NextQuestion      string   `json:"nextQuestion"`
	Profile           *Profile `json:"profile" validate:"-"`
	IsProfileComplete bool     `json:"isProfileComplete"`
}

var turnSchema = llm.Schema{
	Name:        "profile_turn",
	Description: "Next interview question or the completed career profile",
	Definition:  llm.SchemaFor[turnPayload](),
}

func buildTurnRequest(in TurnInput) (llm.Request, error) {
	tmpl, err := llm.PromptTemplate(llm.FlowProfileTurn, turnPromptVersion)
	if err != nil {
		return llm.Request{}, err
	}
	answers := in.PreviousAnswers
	if answers == nil {
		answers = []string{}
	}
	user, err := json.Marshal(TurnInput{
		PreviousAnswers: answers,
		CurrentQuestion: in.CurrentQuestion,
		Background:      in.Background,
	})
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Flow:          llm.FlowProfileTurn,
		PromptVersion: turnPromptVersion,
		System:        llm.Render(tmpl, map[string]string{"PROMPT_VERSION": turnPromptVersion}),
		User:          string(user),
		Schema:        turnSchema,
	}, nil
}

// decodeTurn enforces the turn contract: a complete turn carries a full profile,
// an incomplete turn carries a question.
func decodeTurn(raw json.RawMessage) (TurnOutput, error) {
	var payload turnPayload
	if err := llm.Decode(raw, &payload); err != nil {
		return TurnOutput{}, err
	}
	out := TurnOutput{
		NextQuestion:      strings.TrimSpace(payload.NextQuestion),
		IsProfileComplete: payload.IsProfileComplete,
	}
	if !payload.IsProfileComplete {
		if out.NextQuestion == "" {
			return TurnOutput{}, fmt.Errorf("%w: nextQuestion: required when profile is incomplete", llm.ErrSchemaValidation)
		}
		return out, nil
	}
	if payload.Profile == nil {
		return TurnOutput{}, fmt.Errorf("%w: profile: required when isProfileComplete is true", llm.ErrSchemaValidation)
	}
	if err := llm.Validator().Struct(payload.Profile); err != nil {
		return TurnOutput{}, fmt.Errorf("%w: %s", llm.ErrSchemaValidation, strings.Join(llm.Problems(err), "; "))
	}
	profile := *payload.Profile
	out.Profile = &profile
	return out, nil
}
