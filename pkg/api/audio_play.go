// Package api describes the remote content API: its records, its
// structured error payload and the service contracts the bot consumes.
package api

import (
	"github.com/google/uuid"
)

type Person struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CastMember is an actor with the roles they play. Main marks the
// starring cast.
type CastMember struct {
	Actor Person   `json:"actor"`
	Roles []string `json:"roles"`
	Main  bool     `json:"main"`
}

type AudioPlaySeries struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ExternalResourceType string

const (
	ResourcePurchase  ExternalResourceType = "purchase"
	ResourceStreaming ExternalResourceType = "streaming"
	ResourceDownload  ExternalResourceType = "download"
	ResourceOther     ExternalResourceType = "other"
	ResourcePrivate   ExternalResourceType = "private"
)

// ExternalResource is a typed link to somewhere the audio play can be
// bought, streamed or downloaded.
type ExternalResource struct {
	Type ExternalResourceType `json:"resource_type"`
	Link string               `json:"link"`
}

type Language string

const (
	LanguageRussian   Language = "rus"
	LanguageUkrainian Language = "ukr"
)

type TranslationType string

const (
	TranslationTranscript TranslationType = "transcript"
	TranslationSubtitles  TranslationType = "subtitles"
	TranslationVoiceover  TranslationType = "voiceover"
)

type AudioPlayTranslation struct {
	OriginalID        uuid.UUID          `json:"original_id"`
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Type              TranslationType    `json:"translation_type"`
	Language          Language           `json:"language"`
	ExternalResources []ExternalResource `json:"external_resources"`
}

type AudioPlay struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Synopsis          string             `json:"synopsis"`
	ReleaseDate       ReleaseDate        `json:"release_date"`
	Writers           []Person           `json:"writers"`
	Cast              []CastMember       `json:"cast"`
	Series            *AudioPlaySeries   `json:"series,omitempty"`
	SeriesSeason      *int               `json:"series_season,omitempty"`
	SeriesNumber      *int               `json:"series_number,omitempty"`
	CoverURI          string             `json:"cover_uri,omitempty"`
	ExternalResources []ExternalResource `json:"external_resources"`
}

// MainCast returns the cast members flagged as main, in cast order.
func (a AudioPlay) MainCast() []CastMember {
	var mains []CastMember
	for _, c := range a.Cast {
		if c.Main {
			mains = append(mains, c)
		}
	}
	return mains
}

type SearchAudioPlaysResponse struct {
	AudioPlays []AudioPlay `json:"audio_plays"`
}

// AudioPlayLocation is the self-hosted location of an audio play,
// available to authenticated users only.
type AudioPlayLocation struct {
	URI string `json:"uri"`
}
