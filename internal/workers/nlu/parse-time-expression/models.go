// internal/workers/nlu/parse-time-expression/models.go
package parsetimeexpression

type Input struct {
	Text string `json:"text"`
	// Reference is the RFC3339 instant relative expressions resolve
	// against. Defaults to the current time.
	Reference string `json:"reference,omitempty"`
}

type Output struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	DateTime *string `json:"datetime"`
	Found    bool    `json:"found"`
}
