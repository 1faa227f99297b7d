// Package protocol implements the Deezer Connect websocket wire format
// (§6.3): channel keying, the Send/Receive/Subscribe/Unsubscribe envelope,
// and the polymorphic message bodies the remote-control protocol engine
// dispatches on.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// UnspecifiedUser is the wire value meaning "no particular user", used as
// `from` for broadcast-style events such as RemoteDiscover.
const UnspecifiedUser int64 = -1

// UserID is a Deezer account id, or UnspecifiedUser.
type UserID int64

func (u UserID) String() string {
	if u == UserID(UnspecifiedUser) {
		return "-1"
	}
	return strconv.FormatInt(int64(u), 10)
}

// ParseUserID parses a channel-part user id, accepting "-1" as Unspecified.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("protocol: user id %q: %w", s, err)
	}
	return UserID(n), nil
}

// Event names one of the Connect websocket's channel kinds.
type Event string

const (
	EventRemoteCommand  Event = "REMOTECOMMAND"
	EventRemoteDiscover Event = "REMOTEDISCOVER"
	EventRemoteQueue    Event = "REMOTEQUEUE"
	EventStream         Event = "STREAM"
	EventUserFeed       Event = "USERFEED"
)

// Channel is the `{from, to, event}` key a subscription/message is scoped
// to. FeedID is only meaningful when Event == EventUserFeed.
type Channel struct {
	From   UserID
	To     UserID
	Event  Event
	FeedID UserID
}

const channelSeparator = "_"

// String renders the wire form `from_to_EVENT[_userfeed_id]`.
func (c Channel) String() string {
	base := fmt.Sprintf("%s%s%s%s%s", c.From, channelSeparator, c.To, channelSeparator, c.Event)
	if c.Event == EventUserFeed {
		return base + channelSeparator + c.FeedID.String()
	}
	return base
}

// ParseChannel parses the wire form of a Channel key.
func ParseChannel(s string) (Channel, error) {
	parts := strings.Split(s, channelSeparator)
	if len(parts) < 3 {
		return Channel{}, fmt.Errorf("protocol: malformed channel %q", s)
	}

	from, err := ParseUserID(parts[0])
	if err != nil {
		return Channel{}, fmt.Errorf("protocol: channel %q: %w", s, err)
	}
	to, err := ParseUserID(parts[1])
	if err != nil {
		return Channel{}, fmt.Errorf("protocol: channel %q: %w", s, err)
	}

	event := Event(strings.ToUpper(parts[2]))
	c := Channel{From: from, To: to, Event: event}

	switch event {
	case EventUserFeed:
		if len(parts) != 4 {
			return Channel{}, fmt.Errorf("protocol: channel %q: USERFEED requires a trailing id", s)
		}
		feedID, err := ParseUserID(parts[3])
		if err != nil {
			return Channel{}, fmt.Errorf("protocol: channel %q: %w", s, err)
		}
		c.FeedID = feedID
	case EventRemoteCommand, EventRemoteDiscover, EventRemoteQueue, EventStream:
		if len(parts) != 3 {
			return Channel{}, fmt.Errorf("protocol: channel %q: unexpected trailing parts", s)
		}
	default:
		return Channel{}, fmt.Errorf("protocol: channel %q: unknown event %q", s, parts[2])
	}

	return c, nil
}
