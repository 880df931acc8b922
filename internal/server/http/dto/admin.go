package dto

// StatusChangeRequest moves an order to a new status.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignWriterRequest sets the order's writer.
type AssignWriterRequest struct {
	WriterID string `json:"writer_id" binding:"required,uuid"`
}

// Listing is a dashboard panel.
type Listing[T any] struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Items     []T    `json:"items"`
}

// StatusCountResponse is one row of the order statistics.
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// StatsResponse summarizes orders.
type StatsResponse struct {
	Available bool                  `json:"available"`
	Reason    string                `json:"reason,omitempty"`
	Total     int64                 `json:"total"`
	ByStatus  []StatusCountResponse `json:"by_status"`
}
