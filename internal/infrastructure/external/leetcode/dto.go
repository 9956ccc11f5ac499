package leetcode

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRAPHQL ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// GraphQLRequest is the POST body sent to the GraphQL endpoint.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// GraphQLErrorDTO is one entry of a GraphQL "errors" array.
type GraphQLErrorDTO struct {
	Message string `json:"message"`
	// Path mixes field names and list indices, e.g. ["matchedUser", 0].
	Path []any `json:"path,omitempty"`
}

// Error implements the error interface.
func (e GraphQLErrorDTO) Error() string {
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, p := range e.Path {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ".") + ": " + e.Message
	}
	return e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// USER QUERY
// ══════════════════════════════════════════════════════════════════════════════

// userQuery fetches everything a profile needs in one round trip.
const userQuery = `query userProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile {
      realName
      userAvatar
      aboutMe
    }
    submitStats {
      acSubmissionNum {
        difficulty
        count
      }
    }
  }
}`

// UserResponseDTO is the response to userQuery.
type UserResponseDTO struct {
	Data struct {
		MatchedUser *MatchedUserDTO `json:"matchedUser"`
	} `json:"data"`
	Errors []GraphQLErrorDTO `json:"errors,omitempty"`
}

// MatchedUserDTO is a user as returned by the provider.
type MatchedUserDTO struct {
	Username    string         `json:"username"`
	Profile     ProfileDTO     `json:"profile"`
	SubmitStats SubmitStatsDTO `json:"submitStats"`
}

// ProfileDTO holds the public profile fields.
type ProfileDTO struct {
	RealName   string `json:"realName"`
	UserAvatar string `json:"userAvatar"`
	AboutMe    string `json:"aboutMe"`
}

// SubmitStatsDTO holds accepted-submission counts per difficulty.
type SubmitStatsDTO struct {
	ACSubmissionNum []SubmissionCountDTO `json:"acSubmissionNum"`
}

// SubmissionCountDTO is the count for one difficulty bucket.
// Difficulty is "All", "Easy", "Medium" or "Hard".
type SubmissionCountDTO struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}
