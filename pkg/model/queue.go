package model

import (
	mathrand "math/rand"
)

// MixType marks why a queue exists; only PersonalizedRadio ("Flow")
// triggers auto-extension (§4.1.7).
type MixType int

const (
	MixNone MixType = iota
	MixPersonalizedRadio
)

// ContainerType marks the queue's content container; podcast/live-radio
// containers are not hydrated into playable tracks in the core (§4.1.5).
type ContainerType int

const (
	ContainerDefault ContainerType = iota
	ContainerPodcast
	ContainerLiveRadio
)

// Context carries the metadata that decides how a queue should be
// hydrated and whether it should be auto-extended.
type Context struct {
	Container ContainerType
	Mix       MixType
}

// List is the queue of track descriptors Connect publishes (§3 Queue).
type List struct {
	ID          string
	Tracks      []Descriptor
	Shuffled    bool
	TracksOrder []int // present only when Shuffled; permutation of [0..len)
	Ctx         Context
}

// IsPersonalizedRadio reports whether this queue should be auto-extended
// near its end (§4.1.7).
func (l *List) IsPersonalizedRadio() bool { return l.Ctx.Mix == MixPersonalizedRadio }

// IsPlayableContainer reports whether tracks should be hydrated at all
// (§4.1.5): podcast and live-radio containers are not supported in the
// core and are left unhydrated.
func (l *List) IsPlayableContainer() bool {
	return l.Ctx.Container != ContainerPodcast && l.Ctx.Container != ContainerLiveRadio
}

// fisherYates performs an in-place Fisher-Yates shuffle using the
// package-level math/rand source.
func fisherYates(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := mathrand.Intn(i + 1)
		swap(i, j)
	}
}

// Shuffle reorders Tracks with a Fisher-Yates shuffle and records the
// permutation in TracksOrder: TracksOrder[i] is the original index of the
// track now at position i (§3 Queue invariant, §8 property 1).
func (l *List) Shuffle() {
	n := len(l.Tracks)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	shuffled := make([]Descriptor, n)
	copy(shuffled, l.Tracks)

	fisherYates(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	l.Tracks = shuffled
	l.TracksOrder = order
	l.Shuffled = true
}

// Unshuffle restores original order using the inverse permutation, then
// clears TracksOrder (§3 Queue invariant).
func (l *List) Unshuffle() {
	if !l.Shuffled || l.TracksOrder == nil {
		l.Shuffled = false
		l.TracksOrder = nil
		return
	}
	n := len(l.Tracks)
	original := make([]Descriptor, n)
	for newIdx, origIdx := range l.TracksOrder {
		original[origIdx] = l.Tracks[newIdx]
	}
	l.Tracks = original
	l.TracksOrder = nil
	l.Shuffled = false
}

// OriginalIndexOf converts a shuffled-view position into the original
// (unshuffled) index, for progress reporting (§4.1.8, §8 property 2).
func (l *List) OriginalIndexOf(shuffledPos int) int {
	if !l.Shuffled || l.TracksOrder == nil {
		return shuffledPos
	}
	if shuffledPos < 0 || shuffledPos >= len(l.TracksOrder) {
		return shuffledPos
	}
	return l.TracksOrder[shuffledPos]
}

// EffectivePosition converts a controller-supplied shuffled-view position
// into the player's internal track-list index (§4.1.6 step 2, §4.2.7).
func (l *List) EffectivePosition(pos int) int {
	if !l.Shuffled || l.TracksOrder == nil {
		return pos
	}
	if pos < 0 || pos >= len(l.TracksOrder) {
		return pos
	}
	return l.TracksOrder[pos]
}

// Extend appends newly-fetched descriptors (Flow recommendations, §4.1.7)
// and assigns a new queue id.
func (l *List) Extend(newID string, tracks []Descriptor) {
	l.Tracks = append(l.Tracks, tracks...)
	l.ID = newID
}
