package domain

import "time"

// ScriptType distinguishes plain queries from aggregation pipelines
type ScriptType string

const (
	ScriptTypeQuery       ScriptType = "query"
	ScriptTypeAggregation ScriptType = "aggregation"
)

// ExecutionStatus is the recorded outcome of one execution attempt
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
)

// Script is a saved, named unit of user-authored query/aggregation source text
type Script struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Code        string     `json:"code"`
	Type        ScriptType `json:"type"`
	IsReadonly  bool       `json:"isReadonly"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewScript carries the fields a caller provides when creating a script
type NewScript struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description *string    `json:"description"`
	Code        string     `json:"code" validate:"required,min=1"`
	Type        ScriptType `json:"type" validate:"required,oneof=query aggregation"`
	IsReadonly  *bool      `json:"isReadonly"`
}

// ScriptPatch carries a partial update; nil fields are left untouched
type ScriptPatch struct {
	Name        *string     `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string     `json:"description"`
	Code        *string     `json:"code" validate:"omitempty,min=1"`
	Type        *ScriptType `json:"type" validate:"omitempty,oneof=query aggregation"`
	IsReadonly  *bool       `json:"isReadonly"`
}

// Execution is one recorded attempt to run source text, ad-hoc or saved
type Execution struct {
	ID         int             `json:"id"`
	ScriptID   *int            `json:"scriptId"`
	Status     ExecutionStatus `json:"status"`
	Result     any             `json:"result"`
	ExecutedAt time.Time       `json:"executedAt"`
	DurationMs int64           `json:"durationMs"`
}

// NewExecution carries the fields the runner records for one attempt
type NewExecution struct {
	ScriptID   *int
	Status     ExecutionStatus
	Result     any
	DurationMs int64
}

// ExecutionSummary is the projection used by history listings: the result
// payload is truncated to a fixed-length text preview
type ExecutionSummary struct {
	ID            int             `json:"id"`
	ScriptID      *int            `json:"scriptId"`
	Status        ExecutionStatus `json:"status"`
	ExecutedAt    time.Time       `json:"executedAt"`
	DurationMs    int64           `json:"durationMs"`
	ResultPreview *string         `json:"resultPreview"`
}

// ResultPreviewLength is the number of characters kept in a summary preview
const ResultPreviewLength = 300
