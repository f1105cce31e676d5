package model

// DecodedEvent is an event record with its arguments unpacked by name.
type DecodedEvent struct {
	TxHash      string                 `json:"tx_hash"`
	BlockNumber uint64                 `json:"block_number"`
	LogIndex    uint64                 `json:"log_index"`
	Emitter     string                 `json:"emitter"`
	Name        string                 `json:"name"`
	Timestamp   uint64                 `json:"timestamp"`
	Label       string                 `json:"label"`
	Args        map[string]interface{} `json:"args"`
}

// DecodeError records a decode failure for an event line.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Emitter     string `json:"emitter"`
	Name        string `json:"name"`
	Error       string `json:"error"`
}
