package models

// ProgressSnapshot is emitted after every processed number. Derived, never stored.
type ProgressSnapshot struct {
	Current        int    `json:"current"`
	Total          int    `json:"total"`
	Success        int    `json:"success"`
	Failed         int    `json:"failed"`
	Phone          string `json:"phone"`
	Status         string `json:"status"`
	ETAMs          int64  `json:"etaMs"`
	CompletionTime string `json:"completionTime"`
	ElapsedMs      int64  `json:"elapsedMs"`
}

// Group is a WhatsApp group the session belongs to
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
