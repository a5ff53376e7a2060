package dto

type SecurityOverview struct {
	ActiveBans     int64  `json:"active_bans"`
	BansToday      int64  `json:"bans_today"`
	RequestsToday  uint64 `json:"requests_today"`
	TrackedClients int64  `json:"tracked_clients"`
}
