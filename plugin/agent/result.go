package agent

import (
	"encoding/json"
)

// ResultType tags the shape of a Result.
type ResultType string

const (
	ResultTypeText  ResultType = "text"
	ResultTypeTable ResultType = "table"
	ResultTypeError ResultType = "error"
)

// Result is the response envelope shared by every agent and by the router.
// Exactly one of the variants is populated, selected by Type.
type Result struct {
	Type    ResultType
	Content string   // text
	Headers []string // table
	Rows    [][]any  // table
	Message string   // error
}

func Text(content string) Result {
	return Result{Type: ResultTypeText, Content: content}
}

func Table(headers []string, rows [][]any) Result {
	if rows == nil {
		rows = [][]any{}
	}
	return Result{Type: ResultTypeTable, Headers: headers, Rows: rows}
}

func Error(message string) Result {
	return Result{Type: ResultTypeError, Message: message}
}

// IsError reports whether the result is the error variant.
func (r Result) IsError() bool {
	return r.Type == ResultTypeError
}

type textJSON struct {
	Type    ResultType `json:"type"`
	Content string     `json:"content"`
}

type tableJSON struct {
	Type    ResultType `json:"type"`
	Headers []string   `json:"headers"`
	Rows    [][]any    `json:"rows"`
}

type errorJSON struct {
	Type    ResultType `json:"type"`
	Message string     `json:"message"`
}

// MarshalJSON encodes only the fields of the active variant.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ResultTypeTable:
		headers, rows := r.Headers, r.Rows
		if headers == nil {
			headers = []string{}
		}
		if rows == nil {
			rows = [][]any{}
		}
		return json.Marshal(tableJSON{Type: r.Type, Headers: headers, Rows: rows})
	case ResultTypeError:
		return json.Marshal(errorJSON{Type: r.Type, Message: r.Message})
	default:
		return json.Marshal(textJSON{Type: ResultTypeText, Content: r.Content})
	}
}

// UnmarshalJSON decodes any of the three variants.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    ResultType `json:"type"`
		Content string     `json:"content"`
		Headers []string   `json:"headers"`
		Rows    [][]any    `json:"rows"`
		Message string     `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ResultTypeTable:
		*r = Table(raw.Headers, raw.Rows)
	case ResultTypeError:
		*r = Error(raw.Message)
	default:
		*r = Text(raw.Content)
	}
	return nil
}

// String returns the JSON form, which is what gets stored as conversation content.
func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.Content
	}
	return string(data)
}
