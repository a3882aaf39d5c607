package handler

import "encoding/json"

// WarmupSource identifies scheduled warmup events.
const WarmupSource = "warmup"

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status string `json:"status"`
}

// IsWarmupEvent checks if the event is a warmup ping.
func IsWarmupEvent(event json.RawMessage) bool {
	var probe struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(event, &probe); err != nil {
		return false
	}
	return probe.Source == WarmupSource
}
