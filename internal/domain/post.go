package domain

import "time"

// PostSummary is the aggregate view of a decision post
type PostSummary struct {
	PostUUID             string    `json:"post_uuid"`
	AuthorID             string    `json:"author_id"`
	CreatorID            string    `json:"creator_id"` // bundle credits are scoped to this creator
	TotalVotes           int64     `json:"total_votes"`
	OptionCount          int       `json:"option_count"`
	VotePrice            int64     `json:"vote_price"` // minor currency units per vote
	Currency             string    `json:"currency"`
	StartsAt             time.Time `json:"starts_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	IsSuggestionsAllowed bool      `json:"is_suggestions_allowed"`
	FreeVotesRemaining   int       `json:"free_votes_remaining"`
}

// OptionsPage is one page of options plus the cursor of the next page.
// An empty NextPageToken marks the last page.
type OptionsPage struct {
	Options       []Option `json:"options"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}
