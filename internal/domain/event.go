package domain

// EventKind identifies a realtime channel event
type EventKind string

const (
	EventOptionCreatedOrUpdated EventKind = "option_created_or_updated"
	EventOptionDeleted          EventKind = "option_deleted"
	EventPostUpdated            EventKind = "post_updated"
)

// Event is a decoded message from a post's realtime channel
type Event struct {
	Kind     EventKind    `json:"kind"`
	PostUUID string       `json:"post_uuid"`
	Option   *Option      `json:"option,omitempty"`
	OptionID int64        `json:"option_id,omitempty"`
	Post     *PostSummary `json:"post,omitempty"`
}
