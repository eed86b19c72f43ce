package resources

import "careermap-backend/internal/profiles"

// Resource is one recommended learning resource.
type Resource struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
	Description  string `json:"description"`
	IsAIFirst    bool   `json:"isAiFirst"`
	Difficulty   string `json:"difficulty" validate:"required"`
	TimeEstimate string `json:"timeEstimate" validate:"required"`
}

// RecommendInput is the request for one recommendation call.
type RecommendInput struct {
	Profile profiles.Profile `json:"profile"`
	Goal    string           `json:"goal"`
}

// payload wraps the list because structured output needs an object at the root.
type payload struct {
	Resources []Resource `json:"resources" validate:"required,dive"`
}
