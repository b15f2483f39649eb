package models

// StoreStats holds row counts reported by the stats job
type StoreStats struct {
	Users int64 `json:"users"`
	Todos int64 `json:"todos"`
}
