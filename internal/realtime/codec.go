package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"optionsync/internal/domain"
)

// ErrMalformedEvent is returned for payloads that decode but are incomplete
var ErrMalformedEvent = errors.New("malformed realtime event")

// Encode serializes an event for the wire
func Encode(event domain.Event) ([]byte, error) {
	if err := validate(event); err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// Decode parses and checks a payload received from a post channel
func Decode(payload []byte) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.Event{}, fmt.Errorf("failed to decode realtime event: %w", err)
	}
	if err := validate(event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func validate(event domain.Event) error {
	if event.PostUUID == "" {
		return fmt.Errorf("%w: missing post_uuid", ErrMalformedEvent)
	}
	switch event.Kind {
	case domain.EventOptionCreatedOrUpdated:
		if event.Option == nil || event.Option.ID == 0 {
			return fmt.Errorf("%w: %s without option", ErrMalformedEvent, event.Kind)
		}
	case domain.EventOptionDeleted:
		if event.OptionID == 0 {
			return fmt.Errorf("%w: %s without option_id", ErrMalformedEvent, event.Kind)
		}
	case domain.EventPostUpdated:
		if event.Post == nil {
			return fmt.Errorf("%w: %s without post", ErrMalformedEvent, event.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, event.Kind)
	}
	return nil
}
