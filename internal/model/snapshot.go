package model

// FundSnapshot is a pool's valuation at the end of a unit of work.
type FundSnapshot struct {
	Vault             string `json:"vault"`
	Controller        string `json:"controller"`
	Release           string `json:"release"`
	BlockNumber       uint64 `json:"block_number"`
	Timestamp         uint64 `json:"timestamp"`
	DenominationAsset string `json:"denomination_asset"`
	Gav               string `json:"gav"`
	TotalSupply       string `json:"total_supply"`
	GrossShareValue   string `json:"gross_share_value"`
	GavValid          bool   `json:"gav_valid"`
}
