package deadlinereminderemail

import (
	"encoding/json"
	"fmt"
	"strconv"

	"synctask-notifications/internal/common/validation"
)

var inputSchema = validation.MustStringFields(
	[]string{"userEmail", "username", "taskText", "deadline"},
	[]string{"groupName"},
	validation.AllowNumbers("deadline"),
)

func parseInput(data map[string]interface{}) (*Input, *validation.ValidationResult, error) {
	result := inputSchema.Validate(data)
	if !result.Valid {
		return nil, result, nil
	}

	payload := make(map[string]interface{}, len(data))
	for k, v := range data {
		payload[k] = v
	}
	// Numeric deadlines are rendered as written.
	if n, ok := payload["deadline"].(float64); ok {
		payload["deadline"] = strconv.FormatFloat(n, 'f', -1, 64)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, result, fmt.Errorf("encode payload: %w", err)
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, result, fmt.Errorf("decode payload: %w", err)
	}
	return &input, result, nil
}
