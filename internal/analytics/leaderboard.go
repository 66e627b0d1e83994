// ABOUTME: Ranked leaderboard of hospitals or wards with short-term trends.
// ABOUTME: Top performers and needs-attention lists never overlap.
package analytics

import (
	"sort"

	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

// TrendWindow is how many recent sessions each side of a trend covers.
const TrendWindow = 3

// PodiumSize is the length of the top and needs-attention lists.
const PodiumSize = 3

// GroupBy picks the leaderboard grouping key.
type GroupBy string

const (
	ByHospital GroupBy = "hospital"
	ByLocation GroupBy = "location"
)

// Key returns the group a session belongs to, or "" when it has none.
func (g GroupBy) Key(s *models.Session) string {
	if g == ByLocation {
		switch {
		case s.Location == "":
			return ""
		case s.Hospital == "":
			return s.Location
		}
		return s.Location + " · " + s.Hospital
	}
	return s.Hospital
}

// Group is one ranked leaderboard row.
type Group struct {
	Key      string           `json:"key"`
	Score    *int             `json:"score"`
	Tier     *compliance.Tier `json:"tier,omitempty"`
	Trend    *int             `json:"trend"`
	Sessions int              `json:"sessions"`
}

// Board is a ranked leaderboard.
type Board struct {
	GroupBy        GroupBy `json:"group_by"`
	Groups         []Group `json:"groups"`
	Top            []Group `json:"top"`
	NeedsAttention []Group `json:"needs_attention"`
}

// Leaderboard groups sessions and ranks groups by cross-metric average.
// Groups without a score sort last and are left off both podium lists.
func Leaderboard(sessions []*models.Session, by GroupBy) Board {
	if by == "" {
		by = ByHospital
	}

	var order []string
	members := make(map[string][]*models.Session)
	for _, s := range sessions {
		if s == nil {
			continue
		}
		key := by.Key(s)
		if key == "" {
			continue
		}
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], s)
	}

	board := Board{GroupBy: by}
	for _, key := range order {
		group := members[key]
		score := compliance.Overall(group)
		board.Groups = append(board.Groups, Group{
			Key:      key,
			Score:    score,
			Tier:     compliance.TierOf(score),
			Trend:    trend(group),
			Sessions: len(group),
		})
	}

	sort.SliceStable(board.Groups, func(i, j int) bool {
		a, b := board.Groups[i].Score, board.Groups[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a > *b
	})

	scored := 0
	for _, g := range board.Groups {
		if g.Score != nil {
			scored++
		}
	}
	ranked := board.Groups[:scored]

	board.Top = append([]Group{}, ranked[:min(PodiumSize, len(ranked))]...)
	board.NeedsAttention = []Group{}
	if len(ranked) > PodiumSize {
		for i := len(ranked) - 1; i >= len(ranked)-PodiumSize; i-- {
			board.NeedsAttention = append(board.NeedsAttention, ranked[i])
		}
	}
	return board
}

// trend is the average of the latest window minus the window before it.
func trend(sessions []*models.Session) *int {
	ordered := byRecency(sessions)
	n := len(ordered)
	recentStart := max(0, n-TrendWindow)
	priorStart := max(0, recentStart-TrendWindow)

	recent := compliance.Overall(ordered[recentStart:])
	prior := compliance.Overall(ordered[priorStart:recentStart])
	return compliance.Delta(recent, prior)
}
