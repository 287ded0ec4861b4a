package domain

// Channel is a delivery destination.
type Channel struct {
	ID    string
	Name  string
	Topic string
}

// JSONSchema constrains a completion to structured output.
type JSONSchema struct {
	Name        string
	Description string
	// Schema is the JSON Schema document; it must marshal to a JSON object.
	Schema any
}

// ChatRequest is a single system+user completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float32
	Schema      *JSONSchema
}

// Usage counts tokens billed for one completion.
type Usage struct {
	PromptTokens     int
	CachedTokens     int
	CompletionTokens int
}

// ChatResponse carries the first choice of a completion.
type ChatResponse struct {
	Model   string
	Content string
	Refusal string
	Usage   *Usage
}
