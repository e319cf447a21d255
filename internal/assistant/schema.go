package assistant

import (
	"encoding/json"

	"github.com/openai/openai-go/v3/shared"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recommendToolName = "recommend_books"

const recommendToolDescription = "Report the reading-interest analysis and " +
	"book recommendations for one reader. Always call this function to " +
	"deliver results instead of writing them as a plain message."

// recommendToolParameters is the declared schema for the recommend_books
// function tool. The same document is sent to the assistant service and
// compiled locally to validate the arguments the model sends back.
var recommendToolParameters = shared.FunctionParameters{
	"type": "object",
	"properties": map[string]any{
		"recommendation_summary": map[string]any{
			"type":        "string",
			"description": "Summary of the reader's interests and what kind of book they should read next",
		},
		"recommended_books": map[string]any{
			"type":        "array",
			"description": "Recommended books from the Library Vector Store, with the reason for each recommendation",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"book_id": map[string]any{
						"type":        "string",
						"description": "book_id of the book in the Library Vector Store",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "title of the book in the Library Vector Store",
					},
					"reason": map[string]any{
						"type":        "string",
						"description": "Reason for recommending this book to this reader",
					},
				},
			},
		},
	},
	"required": []string{"recommendation_summary", "recommended_books"},
}

var recommendToolSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	raw, err := json.Marshal(map[string]any(recommendToolParameters))
	if err != nil {
		panic(err)
	}
	sch, err := jsonschema.CompileString(recommendToolName+".json", string(raw))
	if err != nil {
		panic(err)
	}
	return sch
}

// validateToolArgs checks raw tool-call arguments against the declared
// schema. The model occasionally omits declared-required fields (the
// analysis run only fills the summary), so callers treat a validation
// error as a warning, not a failure.
func validateToolArgs(raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	return recommendToolSchema.Validate(v)
}
