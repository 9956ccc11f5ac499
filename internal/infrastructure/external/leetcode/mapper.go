package leetcode

import (
	"strings"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// bucketOrder is the positional layout the provider uses when difficulty
// labels are missing.
var bucketOrder = []string{"all", "easy", "medium", "hard"}

// toProfile converts a matched user into a domain profile. The handle is the
// one that was asked for, not the provider's canonical spelling.
func toProfile(handle shared.Handle, dto *MatchedUserDTO) *leaderboard.Profile {
	p := &leaderboard.Profile{
		Handle:      handle,
		DisplayName: dto.Profile.RealName,
		AvatarURL:   dto.Profile.UserAvatar,
		AboutMe:     dto.Profile.AboutMe,
		Counts:      toCounts(dto.SubmitStats.ACSubmissionNum),
	}
	if p.DisplayName == "" {
		p.DisplayName = handle.String()
	}
	return p
}

func toCounts(buckets []SubmissionCountDTO) leaderboard.AcceptedCounts {
	var counts leaderboard.AcceptedCounts
	for i, b := range buckets {
		label := strings.ToLower(strings.TrimSpace(b.Difficulty))
		if label == "" && i < len(bucketOrder) {
			label = bucketOrder[i]
		}

		switch label {
		case "all":
			counts.Total = leaderboard.IntPtr(b.Count)
		case "easy":
			counts.Easy = leaderboard.IntPtr(b.Count)
		case "medium":
			counts.Medium = leaderboard.IntPtr(b.Count)
		case "hard":
			counts.Hard = leaderboard.IntPtr(b.Count)
		}
	}
	return counts
}
