package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-gateway/internal/models"
)

func TestToggleDecisionAddsFirstReaction(t *testing.T) {
	require.Equal(t, toggleAdd, toggleDecision("", false, "❤️"))
}

func TestToggleDecisionClearsSameReaction(t *testing.T) {
	require.Equal(t, toggleClear, toggleDecision("❤️", true, "❤️"))
}

func TestToggleDecisionMovesToDifferentReaction(t *testing.T) {
	require.Equal(t, toggleMove, toggleDecision("❤️", true, "👍"))
}

func TestGroupReactionsFoldsRowsPerSymbol(t *testing.T) {
	rows := []models.Reaction{
		{MessageID: "m1", UserID: "u1", Reaction: "❤️"},
		{MessageID: "m1", UserID: "u2", Reaction: "❤️"},
		{MessageID: "m1", UserID: "u3", Reaction: "👍"},
	}

	groups := groupReactions(rows)

	require.Len(t, groups, 2)
	require.Equal(t, "❤️", groups[0].Reaction)
	require.Equal(t, 2, groups[0].Count)
	require.Equal(t, []string{"u1", "u2"}, groups[0].Users)
	require.Equal(t, "👍", groups[1].Reaction)
	require.Equal(t, []string{"u3"}, groups[1].Users)
}

// A user moving from one reaction to another holds exactly one row, so the
// grouped view can never show them under two symbols.
func TestGroupReactionsShowsMovedUserOnlyUnderNewSymbol(t *testing.T) {
	rows := []models.Reaction{
		{MessageID: "m1", UserID: "u2", Reaction: "❤️"},
		{MessageID: "m1", UserID: "u1", Reaction: "👍"},
	}

	groups := groupReactions(rows)

	var holding []string
	for _, group := range groups {
		for _, user := range group.Users {
			if user == "u1" {
				holding = append(holding, group.Reaction)
			}
		}
	}
	require.Equal(t, []string{"👍"}, holding)
}

func TestGroupReactionsEmptyAfterClear(t *testing.T) {
	require.Empty(t, groupReactions(nil))
}
