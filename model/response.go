package model

// Attempt is one cascade encode as reported to the client
type Attempt struct {
	State    string  `json:"state"`
	Tier     string  `json:"tier"`
	Frames   int     `json:"frames"`
	Duration int     `json:"duration_ms"`
	Palette  string  `json:"palette"`
	SizeKB   float64 `json:"size_kb"`
	Accepted bool    `json:"accepted"`
}

// ErrorResponse is the JSON body of every non-GIF response
type ErrorResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}
