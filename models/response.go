package models

// Response model
type Response struct {
	Status  int         `json:"status"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AdminStatus holds the global dashboard totals
type AdminStatus struct {
	TotalWorkers        int64 `json:"totalWorkers"`
	TotalBuyers         int64 `json:"totalBuyers"`
	TotalAvailableCoins int64 `json:"totalAvailableCoins"`
	TotalPayments       int64 `json:"totalPayments"`
}

// WorkerStatus holds the totals scoped to one worker
type WorkerStatus struct {
	TotalSubmissions        int64 `json:"totalSubmissions"`
	TotalPendingSubmissions int64 `json:"totalPendingSubmissions"`
	TotalEarnings           int64 `json:"totalEarnings"`
}

// BuyerStatus holds the totals scoped to one buyer
type BuyerStatus struct {
	TotalTasks    int64   `json:"totalTasks"`
	PendingTasks  int64   `json:"pendingTasks"`
	TotalPayments float64 `json:"totalPayments"`
}
