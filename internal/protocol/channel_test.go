package protocol

import "testing"

func TestChannelStringRoundTrip(t *testing.T) {
	c := Channel{From: 123, To: 456, Event: EventRemoteCommand}
	got := c.String()
	want := "123_456_REMOTECOMMAND"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	parsed, err := ParseChannel(got)
	if err != nil {
		t.Fatalf("ParseChannel: %v", err)
	}
	if parsed != c {
		t.Fatalf("ParseChannel(%q) = %+v, want %+v", got, parsed, c)
	}
}

func TestChannelUnspecifiedUser(t *testing.T) {
	c := Channel{From: UserID(UnspecifiedUser), To: 789, Event: EventRemoteDiscover}
	got := c.String()
	want := "-1_789_REMOTEDISCOVER"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestChannelUserFeedCarriesTrailingID(t *testing.T) {
	c := Channel{From: 1, To: 2, Event: EventUserFeed, FeedID: 42}
	got := c.String()
	want := "1_2_USERFEED_42"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	parsed, err := ParseChannel(got)
	if err != nil {
		t.Fatalf("ParseChannel: %v", err)
	}
	if parsed != c {
		t.Fatalf("ParseChannel(%q) = %+v, want %+v", got, parsed, c)
	}
}

func TestParseChannelRejectsMalformed(t *testing.T) {
	cases := []string{"", "123", "123_456", "123_456_BOGUS", "1_2_USERFEED"}
	for _, s := range cases {
		if _, err := ParseChannel(s); err == nil {
			t.Fatalf("ParseChannel(%q) should have failed", s)
		}
	}
}
