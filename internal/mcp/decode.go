package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/spinit/internal/errors"
)

// decode maps tool arguments onto T by round-tripping them through JSON.
// Arguments of the wrong type come back as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, errors.NewInvalidRequest("arguments are not valid JSON")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	return out, nil
}
