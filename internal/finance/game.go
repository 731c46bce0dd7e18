package finance

import "github.com/theirongolddev/tally/internal/model"

// PointsPerLevel is the XP needed to advance one level.
const PointsPerLevel = 100

// LevelProgress returns XP earned toward the next level and the span.
func LevelProgress(points int) (current, span int) {
	if points < 0 {
		points = 0
	}
	return points % PointsPerLevel, PointsPerLevel
}

// Quests returns the server's active quests, or the built-in set derived
// from points and streak when the server sends none.
func Quests(g model.GameProgress) []model.Quest {
	if len(g.ActiveQuests) > 0 {
		return g.ActiveQuests
	}
	return []model.Quest{
		{ID: 1, Title: "Upload First Receipt", Points: 50, Completed: g.Points >= 50},
		{ID: 2, Title: "7 Day Streak", Points: 200, Completed: g.StreakCount >= 7},
		{ID: 3, Title: "Stay Under Budget", Points: 100},
	}
}
