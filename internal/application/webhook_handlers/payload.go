package webhook_handlers

import (
	"encoding/json"
	"fmt"
)

// resourcePayload is the slice of a webhook body the sync path needs. Delete
// payloads only carry the numeric id, so the gid is rebuilt when absent.
type resourcePayload struct {
	ID                int64  `json:"id"`
	AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
}

// resourceGID extracts the upstream GraphQL id from a webhook payload
func resourceGID(payload []byte, kind string) (string, error) {
	var body resourcePayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if body.AdminGraphqlAPIID != "" {
		return body.AdminGraphqlAPIID, nil
	}
	if body.ID == 0 {
		return "", fmt.Errorf("webhook payload carries no resource id")
	}
	return fmt.Sprintf("gid://shopify/%s/%d", kind, body.ID), nil
}
