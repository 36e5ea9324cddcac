package models

// AssetMeta is static descriptive metadata for one universe member.
type AssetMeta struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	Region    string `json:"region"`
	AssetType string `json:"assetType"`
	Exchange  string `json:"exchange,omitempty"`
}
