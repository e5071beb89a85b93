package groupinvitationemail

import (
	"encoding/json"
	"fmt"

	"synctask-notifications/internal/common/validation"
)

// inviteeUsername is rendered but not required.
var inputSchema = validation.MustStringFields(
	[]string{"inviteeEmail", "inviterUsername", "groupName"},
	[]string{"inviteeUsername"},
)

func parseInput(data map[string]interface{}) (*Input, *validation.ValidationResult, error) {
	result := inputSchema.Validate(data)
	if !result.Valid {
		return nil, result, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, result, fmt.Errorf("encode payload: %w", err)
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, result, fmt.Errorf("decode payload: %w", err)
	}
	return &input, result, nil
}
