package model

// QuoteRecord is one consulted time-weighted quote, normalized for storage.
// Amounts are decimal strings since they can exceed 64 bits.
type QuoteRecord struct {
	ChainID     uint64 `json:"chain_id"`
	PoolAddress string `json:"pool_address"`
	BaseToken   string `json:"base_token"`
	QuoteToken  string `json:"quote_token"`
	Fee         uint32 `json:"fee"`
	WindowSecs  uint32 `json:"window_seconds"`
	MeanTick    int32  `json:"mean_tick"`
	BaseAmount  string `json:"base_amount"`
	QuoteAmount string `json:"quote_amount"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	IngestedAt  string `json:"ingested_at"`
}
