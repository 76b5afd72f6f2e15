package model

// DispatchMessage is the queue payload that triggers execution of one
// task contract. Retry metadata lives with the queue, not here.
type DispatchMessage struct {
	ContractID string `json:"contractId"`
	Agent      string `json:"agent"`
	Objective  string `json:"objective"`
}

// DeadLetter describes a dispatch message the queue gave up on
type DeadLetter struct {
	TaskID       string `json:"taskId"`
	ContractID   string `json:"contractId"`
	Agent        string `json:"agent"`
	Retried      int    `json:"retried"`
	MaxRetry     int    `json:"maxRetry"`
	LastError    string `json:"lastError"`
	LastFailedAt string `json:"lastFailedAt,omitempty"`
}
