package model

// WebSocket message types
type WSMessageType string

const (
	WSMessageTypeProgress WSMessageType = "progress"
	WSMessageTypeComplete WSMessageType = "complete"
	WSMessageTypeError    WSMessageType = "error"
	WSMessageTypePing     WSMessageType = "ping"
	WSMessageTypePong     WSMessageType = "pong"
)

// WSMessage is the minimal envelope used for ping/pong.
type WSMessage struct {
	Type WSMessageType `json:"type"`
}

// WSProgressMessage is pushed on every phase/progress advance.
type WSProgressMessage struct {
	Type        WSMessageType `json:"type"`
	JobID       string        `json:"jobId"`
	Phase       JobPhase      `json:"phase"`
	Progress    int           `json:"progress"`
	CurrentStep string        `json:"currentStep,omitempty"`
}

// WSCompleteMessage is pushed once when a job reaches completed.
type WSCompleteMessage struct {
	Type   WSMessageType `json:"type"`
	JobID  string        `json:"jobId"`
	Result interface{}   `json:"result"`
}

// WSError carries a machine code plus human message.
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSErrorMessage is pushed once when a job reaches error.
type WSErrorMessage struct {
	Type  WSMessageType `json:"type"`
	JobID string        `json:"jobId"`
	Error WSError       `json:"error"`
}
