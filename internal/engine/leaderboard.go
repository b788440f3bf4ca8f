package engine

import (
	"cmp"
	"slices"

	"github.com/rshade/planetzero/internal/greenops"
)

// Leaderboard page size bounds.
const (
	DefaultLeaderboardLimit = 10
	MinLeaderboardLimit     = 5
	MaxLeaderboardLimit     = 100
)

// RankAggregates drops users without logs and orders the rest ascending by
// average daily emissions. Equal averages are ordered by user ID so ranks are
// deterministic within one request.
func RankAggregates(aggs []UserAggregate) []UserAggregate {
	ranked := make([]UserAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.LogCount > 0 {
			ranked = append(ranked, a)
		}
	}
	slices.SortStableFunc(ranked, func(a, b UserAggregate) int {
		if c := cmp.Compare(a.Average(), b.Average()); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return ranked
}

// BuildLeaderboard assembles the top limit entries from ranked aggregates and
// resolves userID's standing. names maps user IDs to identity records; users
// without one are shown as UnknownUserName.
//
// A caller inside the page takes rank and average from the page. A caller
// outside it is ranked by counting other users with a strictly lower average,
// so tied users share a rank. A caller without records gets nil for both.
func BuildLeaderboard(
	period Period,
	ranked []UserAggregate,
	names map[string]User,
	userID string,
	limit int,
) LeaderboardResult {
	result := LeaderboardResult{Period: period, Entries: []LeaderboardEntry{}}

	page := ranked
	if len(page) > limit {
		page = page[:limit]
	}
	for i, a := range page {
		name := UnknownUserName
		if u, ok := names[a.UserID]; ok && u.Name != "" {
			name = u.Name
		}
		entry := LeaderboardEntry{
			Rank:           i + 1,
			UserID:         a.UserID,
			UserName:       name,
			TotalKg:        greenops.Round3(a.TotalKg),
			AverageDailyKg: greenops.Round3(a.Average()),
		}
		result.Entries = append(result.Entries, entry)
		if a.UserID == userID {
			rank, avg := entry.Rank, entry.AverageDailyKg
			result.UserRank, result.UserAverageKg = &rank, &avg
		}
	}
	if result.UserRank != nil {
		return result
	}

	idx := slices.IndexFunc(ranked, func(a UserAggregate) bool { return a.UserID == userID })
	if idx < 0 {
		return result
	}
	own := ranked[idx].Average()
	lower := 0
	for _, a := range ranked {
		if a.UserID != userID && a.Average() < own {
			lower++
		}
	}
	rank, avg := lower+1, greenops.Round3(own)
	result.UserRank, result.UserAverageKg = &rank, &avg
	return result
}
