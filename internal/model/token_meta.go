package model

// TokenMeta is the registered metadata of an asset the ledger can hold.
// Address is hex encoded.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals"`
}
