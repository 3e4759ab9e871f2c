package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// AwardRequest mirrors the POST /users/{id}/awards body.
type AwardRequest struct {
	ActivityType    string  `json:"activity_type"`
	Level           string  `json:"level,omitempty"`
	Quantity        int     `json:"quantity"`
	Difficulty      string  `json:"difficulty,omitempty"`
	MasteryAchieved bool    `json:"mastery_achieved,omitempty"`
	RetentionRate   float64 `json:"retention_rate,omitempty"`
	SessionMinutes  int     `json:"session_minutes,omitempty"`
}

// RedeemRequest mirrors the POST /users/{id}/redeem body.
type RedeemRequest struct {
	Points int64  `json:"points"`
	Reason string `json:"reason,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is the structured error body returned on non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, apiErr) != nil || apiErr.Code == "" {
			apiErr.Message = string(body)
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
