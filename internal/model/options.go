package model

import "time"

type (
	// MessageOptions tunes a single send. Zero values mean "use the computed default".
	MessageOptions struct {
		// Mimetype overrides the per-type default. A gif mimetype turns the
		// media into a video with gif playback.
		Mimetype string
		// Caption and Thumbnail are applied to the fragment as given; empty
		// values clear whatever the fragment carried.
		Caption   string
		Thumbnail []byte
		Filename  string

		Quoted      *WebMessageInfo
		ContextInfo *ContextInfo

		// Timestamp defaults to the send time.
		Timestamp time.Time

		// SkipIDValidation disables recipient id validation.
		SkipIDValidation bool
	}

	ChatModification string

	// ModifyOptions carries the stamp for pin/mute (the time) and unpin/unmute
	// (the original pin/mute time). Stamp wins over At when both are set.
	ModifyOptions struct {
		Stamp string
		At    time.Time
	}

	ModifyResult struct {
		Status int    `json:"status"`
		Stamp  string `json:"stamp"`
	}

	SearchResult struct {
		Last     bool              `json:"last"`
		Messages []*WebMessageInfo `json:"messages"`
	}
)

const (
	ChatArchive   ChatModification = "archive"
	ChatUnarchive ChatModification = "unarchive"
	ChatPin       ChatModification = "pin"
	ChatUnpin     ChatModification = "unpin"
	ChatMute      ChatModification = "mute"
	ChatUnmute    ChatModification = "unmute"
)
