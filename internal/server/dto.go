package server

import "github.com/nhle/countdown/internal/engine"

// Request payloads. Every field is optional at the schema level so that
// missing values reach the engine's own validation and come back as 400.

type TimerRequest struct {
	Name         string `json:"name,omitempty"`
	Category     string `json:"category,omitempty"`
	Duration     int    `json:"duration,omitempty" doc:"Total length in seconds"`
	HalfwayAlert bool   `json:"halfwayAlert,omitempty"`
}

func (r TimerRequest) toNewTimer() engine.NewTimer {
	return engine.NewTimer{
		Name:         r.Name,
		Category:     r.Category,
		Duration:     r.Duration,
		HalfwayAlert: r.HalfwayAlert,
	}
}

type CategoryRequest struct {
	Name string `json:"name,omitempty"`
}
