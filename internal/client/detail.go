package client

import (
	"encoding/json"
	"io"
	"strings"
)

// maxErrorBody bounds how much of a failing response is read
const maxErrorBody = 64 << 10

// errorBody is the backend's failure envelope. Detail is usually a string;
// request validation failures carry a list of {loc, msg, type} objects.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

// readDetail extracts the human-readable detail from a failing response.
// It returns "" when the body has no usable detail.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
