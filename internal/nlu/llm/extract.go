package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// extractor is one strategy for pulling a JSON object out of a reply.
type extractor func(raw string) (map[string]interface{}, bool)

var extractors = []extractor{
	fencedBlock,
	braceSpan,
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSON returns the first JSON object any strategy finds in raw.
func ExtractJSON(raw string) (map[string]interface{}, bool) {
	for _, ex := range extractors {
		if obj, ok := ex(raw); ok {
			return obj, true
		}
	}
	return nil, false
}

func fencedBlock(raw string) (map[string]interface{}, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(raw, -1) {
		if obj, ok := decodeObject(m[1]); ok {
			return obj, true
		}
	}
	return nil, false
}

// braceSpan takes everything between the first '{' and the last '}'.
func braceSpan(raw string) (map[string]interface{}, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return decodeObject(raw[start : end+1])
}

func decodeObject(s string) (map[string]interface{}, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
