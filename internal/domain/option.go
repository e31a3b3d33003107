package domain

// User is a reference to a platform user as embedded in option payloads
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Option is a selectable choice within a multiple-choice decision post
type Option struct {
	ID                    int64  `json:"id"`
	Text                  string `json:"text"`
	VoteCount             int64  `json:"vote_count"`
	SupporterCount        int64  `json:"supporter_count"`
	Creator               *User  `json:"creator,omitempty"` // nil means owned by the post author
	FirstVoter            *User  `json:"first_voter,omitempty"`
	IsSupportedByMe       bool   `json:"is_supported_by_me"`
	IsCreatedBySubscriber bool   `json:"is_created_by_subscriber"`

	// IsHighest is derived by ranking and never sent over the wire
	IsHighest bool `json:"-"`
}

// RankContext carries the viewer-dependent inputs of ranking
type RankContext struct {
	ViewerID     string
	PostAuthorID string
}

// IsCreatedBy reports whether the option belongs to viewerID. An option
// without a creator belongs to the post author.
func (o Option) IsCreatedBy(viewerID, postAuthorID string) bool {
	if viewerID == "" {
		return false
	}
	if o.Creator == nil {
		return viewerID == postAuthorID
	}
	return o.Creator.ID == viewerID
}

// Clone returns a deep copy so callers can't mutate store-owned user refs
func (o Option) Clone() Option {
	cp := o
	if o.Creator != nil {
		c := *o.Creator
		cp.Creator = &c
	}
	if o.FirstVoter != nil {
		f := *o.FirstVoter
		cp.FirstVoter = &f
	}
	return cp
}
