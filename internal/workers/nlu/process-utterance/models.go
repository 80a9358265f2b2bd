// internal/workers/nlu/process-utterance/models.go
package processutterance

type Input struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

type Output struct {
	Intent    string                 `json:"intent"`
	Entities  map[string]interface{} `json:"entities"`
	Stage     string                 `json:"stage"`
	RequestID string                 `json:"requestId"`
}
