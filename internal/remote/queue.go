package remote

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/pkg/model"
)

func parseQueueTrackType(s string) model.Type {
	switch s {
	case "episode":
		return model.Episode
	case "livestream":
		return model.Livestream
	default:
		return model.Song
	}
}

func parseContainerType(s string) model.ContainerType {
	switch s {
	case "podcast":
		return model.ContainerPodcast
	case "live_radio":
		return model.ContainerLiveRadio
	default:
		return model.ContainerDefault
	}
}

// containerTypeString renders a model.ContainerType back to its wire form.
func containerTypeString(ct model.ContainerType) string {
	switch ct {
	case model.ContainerPodcast:
		return "podcast"
	case model.ContainerLiveRadio:
		return "live_radio"
	default:
		return ""
	}
}

// handlePublishQueue implements §4.1.5: hydrate playable track types,
// replace the player's queue, apply any deferred position from an earlier
// Skip, and top up a personalized-radio queue immediately.
func (e *Engine) handlePublishQueue(q *protocol.QueueContents) error {
	list := &model.List{
		ID:   q.ID,
		Ctx:  model.Context{Container: parseContainerType(q.ContainerType), Mix: model.MixNone},
		Tracks: make([]model.Descriptor, len(q.Tracks)),
	}
	if q.PersonalizedMix {
		list.Ctx.Mix = model.MixPersonalizedRadio
	}
	for i, ref := range q.Tracks {
		list.Tracks[i] = model.Descriptor{ID: ref.ID, Type: parseQueueTrackType(ref.Type)}
	}

	e.queue = list

	if !list.IsPlayableContainer() {
		e.ply.SetTracks(nil, 0)
		return nil
	}

	tracks, err := e.hydrateDescriptors(context.Background(), list.Tracks)
	if err != nil {
		return fmt.Errorf("remote: hydrate queue: %w", err)
	}

	e.trackByID = make(map[string]*model.Track, len(tracks))
	for _, t := range tracks {
		e.trackByID[t.ID] = t
	}

	position := 0
	if e.deferredPosition != nil {
		position = list.EffectivePosition(*e.deferredPosition)
		e.deferredPosition = nil
	}
	e.ply.SetTracks(tracks, position)

	if list.IsPersonalizedRadio() {
		if err := e.extendQueue(context.Background(), true); err != nil {
			e.log.Warn().Err(err).Msg("remote: error extending personalized queue")
		}
	}
	return nil
}

// handleRefreshQueue answers a controller's RefreshQueue request by
// republishing under a new id and immediately reporting progress (§4.1.4).
func (e *Engine) handleRefreshQueue() error {
	if err := e.refreshQueue(); err != nil {
		return err
	}
	return e.reportProgress()
}

// refreshQueue republishes the device's current queue under a fresh id and
// asks the controller to adopt it (§4.1.6 step 4).
func (e *Engine) refreshQueue() error {
	if e.queue == nil {
		return nil
	}
	newID := uuid.NewString()
	if err := e.publishQueue(newID); err != nil {
		return err
	}
	return e.sendQueueMessage(&protocol.RefreshQueue{Type: protocol.BodyRefreshQueue, MessageID: uuid.NewString()})
}

// publishQueue sends the device's own view of the queue back over
// RemoteQueue under id, so a controller that triggered a reorder sees it.
func (e *Engine) publishQueue(id string) error {
	if e.queue == nil {
		return nil
	}
	e.queue.ID = id

	refs := make([]protocol.QueueTrackRef, len(e.queue.Tracks))
	for i, d := range e.queue.Tracks {
		refs[i] = protocol.QueueTrackRef{Type: d.Type.String(), ID: d.ID}
	}

	body := &protocol.PublishQueue{
		Type:      protocol.BodyPublishQueue,
		MessageID: uuid.NewString(),
		Queue: protocol.QueueContents{
			ID:              id,
			Tracks:          refs,
			ContainerType:   containerTypeString(e.queue.Ctx.Container),
			PersonalizedMix: e.queue.Ctx.Mix == model.MixPersonalizedRadio,
		},
	}
	return e.sendQueueMessage(body)
}

// extendQueue implements §4.1.7: once within two tracks of the end of a
// personalized-radio queue, fetch more recommendations and append them to
// both the queue and the player, then refresh. force skips the proximity
// check, used right after a fresh PublishQueue (§4.1.5).
func (e *Engine) extendQueue(ctx context.Context, force bool) error {
	if e.queue == nil || !e.queue.IsPersonalizedRadio() {
		return nil
	}
	if !force {
		remaining := len(e.queue.Tracks) - e.ply.Position() - 1
		if remaining > 2 {
			return nil
		}
	}

	items, err := e.gw.GetUserRadio(ctx, e.accountUserID.String())
	if err != nil {
		return fmt.Errorf("remote: get user radio: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	songIDs := make([]string, len(items))
	for i, it := range items {
		songIDs[i] = it.SongID
	}
	tracks, err := e.hydrateSongs(ctx, songIDs)
	if err != nil {
		return err
	}

	descriptors := make([]model.Descriptor, len(tracks))
	for i, t := range tracks {
		descriptors[i] = model.Descriptor{ID: t.ID, Type: model.Song}
	}
	e.queue.Extend(uuid.NewString(), descriptors)
	e.ply.Extend(tracks)
	if e.trackByID == nil {
		e.trackByID = make(map[string]*model.Track, len(tracks))
	}
	for _, t := range tracks {
		e.trackByID[t.ID] = t
	}

	return e.refreshQueue()
}

// applyShuffleChange implements §4.1.6 step 4: shuffle or unshuffle the
// queue, reorder the player's track list to match, and refresh the queue.
func (e *Engine) applyShuffleChange(shuffle bool) error {
	if e.queue == nil {
		return nil
	}

	oldPos := e.ply.Position()
	var newPos int
	if shuffle {
		e.queue.Shuffle()
		newPos = oldPos
		for i, orig := range e.queue.TracksOrder {
			if orig == oldPos {
				newPos = i
				break
			}
		}
	} else {
		newPos = e.queue.OriginalIndexOf(oldPos)
		e.queue.Unshuffle()
	}

	reordered := make([]*model.Track, 0, len(e.queue.Tracks))
	for _, d := range e.queue.Tracks {
		if t, ok := e.trackByID[d.ID]; ok {
			reordered = append(reordered, t)
		}
	}
	e.ply.SetTracks(reordered, newPos)

	return e.refreshQueue()
}

// hydrateDescriptors resolves a batch of queue descriptors into playable
// Tracks, preserving input order, with a per-call network timeout (§4.1.5).
func (e *Engine) hydrateDescriptors(ctx context.Context, descs []model.Descriptor) ([]*model.Track, error) {
	var songIDs, episodeIDs []string
	for _, d := range descs {
		switch d.Type {
		case model.Song:
			songIDs = append(songIDs, d.ID)
		case model.Episode:
			episodeIDs = append(episodeIDs, d.ID)
		}
	}

	byID := make(map[string]*model.Track, len(descs))

	if len(songIDs) > 0 {
		songs, err := e.hydrateSongs(ctx, songIDs)
		if err != nil {
			return nil, err
		}
		for _, t := range songs {
			byID[t.ID] = t
		}
	}
	if len(episodeIDs) > 0 {
		episodes, err := e.hydrateEpisodes(ctx, episodeIDs)
		if err != nil {
			return nil, err
		}
		for _, t := range episodes {
			byID[t.ID] = t
		}
	}

	out := make([]*model.Track, 0, len(descs))
	for _, d := range descs {
		if d.Type == model.Livestream {
			t, err := e.hydrateLivestream(ctx, d.ID)
			if err != nil {
				e.log.Warn().Err(err).Str("id", d.ID).Msg("remote: livestream hydration failed")
				continue
			}
			out = append(out, t)
			continue
		}
		t, ok := byID[d.ID]
		if !ok {
			e.log.Warn().Str("id", d.ID).Msg("remote: track hydration returned nothing")
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (e *Engine) hydrateSongs(ctx context.Context, ids []string) ([]*model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	items, err := e.gw.GetSongListData(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("remote: hydrate songs: %w", err)
	}
	out := make([]*model.Track, len(items))
	for i, it := range items {
		gain := it.GainDB
		out[i] = &model.Track{
			ID:          it.SongID,
			Type:        model.Song,
			Title:       it.Title,
			Artist:      it.ArtistName,
			AlbumName:   it.AlbumTitle,
			CoverID:     it.AlbumCover,
			Duration:    time.Duration(it.Duration) * time.Second,
			HasDuration: true,
			GainDB:      &gain,
			AccessToken: it.Token,
			Expiry:      time.Unix(it.ExpiryTs, 0),
		}
	}
	return out, nil
}

func (e *Engine) hydrateEpisodes(ctx context.Context, ids []string) ([]*model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	items, err := e.gw.GetEpisodeListData(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("remote: hydrate episodes: %w", err)
	}
	out := make([]*model.Track, len(items))
	for i, it := range items {
		out[i] = &model.Track{
			ID:          it.EpisodeID,
			Type:        model.Episode,
			Title:       it.Title,
			Duration:    time.Duration(it.Duration) * time.Second,
			HasDuration: true,
			ExternalURL: it.DirectURL,
		}
	}
	return out, nil
}

func (e *Engine) hydrateLivestream(ctx context.Context, id string) (*model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	data, err := e.gw.GetLivestreamData(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("remote: hydrate livestream: %w", err)
	}
	urls := make(map[int]model.LivestreamURL, len(data.URLs))
	for bitrate, u := range data.URLs {
		n, err := strconv.Atoi(bitrate)
		if err != nil {
			continue
		}
		urls[n] = model.LivestreamURL{AACURL: u.AAC, MP3URL: u.MP3}
	}
	return &model.Track{
		ID:       data.ID,
		Type:     model.Livestream,
		Title:    data.Title,
		LiveURLs: urls,
	}, nil
}
