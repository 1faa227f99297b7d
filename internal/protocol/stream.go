package protocol

// StreamAction is the Stream channel's single content kind (§6.3).
type StreamAction string

const StreamActionPlay StreamAction = "PLAY"

// StreamIdent names the application area a StreamContents notification
// concerns.
type StreamIdent string

const StreamIdentLimitation StreamIdent = "LIMITATION"

// StreamContents is the body of a StreamSend/StreamReceive Envelope: a
// playback notification on the Stream channel, distinct from the
// Send/Receive Message bodies (§6.3).
type StreamContents struct {
	Action  StreamAction `json:"action"`
	Ident   StreamIdent  `json:"app"`
	UserID  UserID       `json:"user_id"`
	UniqID  string       `json:"uniq_id"` // controller-generated per-session id
	TrackID string       `json:"track_id"`
}
