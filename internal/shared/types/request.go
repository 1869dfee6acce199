package types

// WSMessage is a frame exchanged on the host websocket stream
type WSMessage struct {
	Type  string `json:"type"`
	Event Event  `json:"event,omitempty"`
	Error string `json:"error,omitempty"`
}
