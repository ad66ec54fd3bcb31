package models

// AIStep is one suggested step in an AI task breakdown.
type AIStep struct {
	Step      string   `json:"step"`
	Resources []string `json:"resources,omitempty"`
}

// AIContent is the structured assistant payload stored on a todo.
// The shape matches the completion endpoint's prompt contract.
type AIContent struct {
	Summary       string   `json:"summary"`
	Steps         []AIStep `json:"steps"`
	EstimatedTime string   `json:"estimated_time"`
	Difficulty    string   `json:"difficulty"`
	RelatedTasks  []string `json:"related_tasks,omitempty"`
}
