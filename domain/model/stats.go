package model

import "math"

// DashboardStats aggregates locker occupancy and the user count
type DashboardStats struct {
	Users       int `json:"users"`
	Occupied    int `json:"occupied"`
	Available   int `json:"available"`
	Maintenance int `json:"maintenance"`
}

// TotalLockers is the number of lockers accounted for by the stats
func (s DashboardStats) TotalLockers() int {
	return s.Occupied + s.Available + s.Maintenance
}

// OccupancyPercent returns the rounded share of occupied lockers, 0 when no locker is known
func (s DashboardStats) OccupancyPercent() int {
	total := s.TotalLockers()
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Occupied) / float64(total) * 100))
}

// StatsFromLockers counts lockers by status.
// Lockers with an unknown status are counted as maintenance so the total always matches.
func StatsFromLockers(lockers []Locker, users int) DashboardStats {
	stats := DashboardStats{Users: users}
	for _, l := range lockers {
		switch l.Status {
		case LockerOccupied:
			stats.Occupied++
		case LockerAvailable:
			stats.Available++
		default:
			stats.Maintenance++
		}
	}
	return stats
}
