package webhooks

import (
	"encoding/json"
	"net/url"
	"strings"
)

// linkFields is the lookup order applied to a JSON object response.
var linkFields = []string{
	"link",
	"url",
	"meetingLink",
	"meeting_link",
	"contractUrl",
	"contract_url",
	"documentUrl",
	"signUrl",
}

// maxNesting bounds how deep ExtractLink follows "data" wrappers and arrays.
const maxNesting = 4

// ExtractLink finds the link in a webhook response body. JSON objects are
// searched by linkFields, then through a nested "data" value; arrays are
// searched element by element; a JSON string or a plain-text body is used
// when it is itself an absolute http(s) URL.
func ExtractLink(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", false
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return bareURL(trimmed)
	}
	return linkFrom(decoded, 0)
}

func linkFrom(value any, depth int) (string, bool) {
	if depth > maxNesting {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return bareURL(v)
	case map[string]any:
		for _, field := range linkFields {
			if s, ok := v[field].(string); ok {
				if link, ok := bareURL(s); ok {
					return link, true
				}
			}
		}
		if nested, ok := v["data"]; ok {
			return linkFrom(nested, depth+1)
		}
	case []any:
		for _, item := range v {
			if link, ok := linkFrom(item, depth+1); ok {
				return link, true
			}
		}
	}
	return "", false
}

func bareURL(value string) (string, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	if value == "" || strings.ContainsAny(value, " \n\t") {
		return "", false
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	return value, true
}
