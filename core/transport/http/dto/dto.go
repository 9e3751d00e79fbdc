package dto

// ExecuteRequest triggers one script execution: ad-hoc code, or a saved
// script by id whose stored code is run
type ExecuteRequest struct {
	Code     string `json:"code"`
	ScriptID *int   `json:"scriptId"`
	Type     string `json:"type" validate:"omitempty,oneof=query aggregation"`
}

// ExecuteResponse is the success payload of POST /api/execute
type ExecuteResponse struct {
	Result     any    `json:"result"`
	DurationMs int64  `json:"durationMs"`
	Status     string `json:"status"`
}

// ErrorResponse carries a user-visible error message
type ErrorResponse struct {
	Message string `json:"message"`
}
