package gateway

import "context"

// SongListItem is one entry returned by song.getListData, carrying the
// fields the track lifecycle needs to hydrate a model.Track (§6.1, §4.4.1).
type SongListItem struct {
	SongID      string  `json:"SNG_ID"`
	Title       string  `json:"SNG_TITLE"`
	ArtistName  string  `json:"ART_NAME"`
	AlbumTitle  string  `json:"ALB_TITLE"`
	AlbumCover  string  `json:"ALB_PICTURE"`
	Duration    int     `json:"DURATION"`
	GainDB      float64 `json:"GAIN"`
	Token       string  `json:"TRACK_TOKEN"`
	ExpiryTs    int64   `json:"TRACK_TOKEN_EXPIRE"`
}

type songListResponse struct {
	Data []SongListItem `json:"data"`
}

// GetSongListData hydrates a batch of song ids via song.getListData.
func (c *Client) GetSongListData(ctx context.Context, songIDs []string) ([]SongListItem, error) {
	var resp songListResponse
	body := map[string]interface{}{"sng_ids": songIDs}
	if err := c.Call(ctx, "song.getListData", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// EpisodeListItem is one entry from episode.getListData.
type EpisodeListItem struct {
	EpisodeID  string `json:"EPISODE_ID"`
	Title      string `json:"EPISODE_TITLE"`
	Duration   int    `json:"DURATION"`
	DirectURL  string `json:"EPISODE_DIRECT_STREAM_URL"`
}

type episodeListResponse struct {
	Data []EpisodeListItem `json:"data"`
}

// GetEpisodeListData hydrates a batch of episode ids via episode.getListData.
func (c *Client) GetEpisodeListData(ctx context.Context, episodeIDs []string) ([]EpisodeListItem, error) {
	var resp episodeListResponse
	body := map[string]interface{}{"episode_ids": episodeIDs}
	if err := c.Call(ctx, "episode.getListData", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// LivestreamData is the payload from livestream.getData: per-bitrate
// AAC/MP3 URL pairs (§3 Track, §4.4.1).
type LivestreamData struct {
	ID    string                    `json:"LIVESTREAM_ID"`
	Title string                    `json:"TITLE"`
	URLs  map[string]LivestreamURLs `json:"SOURCES"`
}

// LivestreamURLs mirrors model.LivestreamURL for wire decode.
type LivestreamURLs struct {
	AAC string `json:"HLS_AAC_64"`
	MP3 string `json:"HLS_MP3_128"`
}

// GetLivestreamData fetches a single livestream's descriptor.
func (c *Client) GetLivestreamData(ctx context.Context, livestreamID string) (*LivestreamData, error) {
	var resp LivestreamData
	body := map[string]interface{}{"livestream_id": livestreamID}
	if err := c.Call(ctx, "livestream.getData", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FlowItem is one recommendation from radio.getUserRadio (§4.1.7).
type FlowItem struct {
	SongID string `json:"SNG_ID"`
}

type flowResponse struct {
	Data []FlowItem `json:"data"`
}

// GetUserRadio fetches the next batch of personalized-radio recommendations.
func (c *Client) GetUserRadio(ctx context.Context, userID string) ([]FlowItem, error) {
	var resp flowResponse
	body := map[string]interface{}{"user_id": userID}
	if err := c.Call(ctx, "radio.getUserRadio", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
