package api

import "github.com/prometheus/client_golang/prometheus"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Record is one indexed value
type Record[T any] struct {
	Index int `json:"index"`
	Value T   `json:"value"`
}

// RangeResponse holds consecutive values starting at Start
type RangeResponse[T any] struct {
	Start  int `json:"start"`
	Values []T `json:"values"`
}

// ValueRequest is the body of a single record write
type ValueRequest[T any] struct {
	Value T `json:"value"`
}

// RangeRequest is the body of a range write
type RangeRequest[T any] struct {
	Start  int `json:"start"`
	Values []T `json:"values"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port     int
	Bind     string
	APIKey   string              // Required X-API-Key value; empty disables the check
	Gatherer prometheus.Gatherer // Source of /metrics; nil means the default registry
}
