package model

import "strings"

const (
	MimetypeJPEG = "image/jpeg"
	MimetypePNG  = "image/png"
	MimetypeWebP = "image/webp"
	MimetypeMP4  = "video/mp4"
	MimetypeGIF  = "video/gif"
	MimetypeOgg  = "audio/ogg; codecs=opus"
	MimetypePDF  = "application/pdf"
)

// documents have no default mimetype on purpose: one must be supplied.
var defaultMimetypes = map[MessageType]string{
	MessageTypeImage:   MimetypeJPEG,
	MessageTypeVideo:   MimetypeMP4,
	MessageTypeAudio:   MimetypeOgg,
	MessageTypeSticker: MimetypeWebP,
}

var uploadPaths = map[MessageType]string{
	MessageTypeImage:    "/mms/image",
	MessageTypeVideo:    "/mms/video",
	MessageTypeAudio:    "/mms/audio",
	MessageTypeDocument: "/mms/document",
	MessageTypeSticker:  "/mms/image",
}

func DefaultMimetype(t MessageType) (string, bool) {
	m, ok := defaultMimetypes[t]
	return m, ok
}

func UploadPath(t MessageType) (string, bool) {
	p, ok := uploadPaths[t]
	return p, ok
}

// IsGIFMimetype reports a request for an animated gif, which the wire
// protocol carries as a video with gif playback.
func IsGIFMimetype(m string) bool {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case MimetypeGIF, "image/gif", "gif":
		return true
	}
	return false
}

type (
	MediaHost struct {
		Hostname string `json:"hostname"`
	}

	// MediaConn is the upload target handed out by the server.
	MediaConn struct {
		Auth  string      `json:"auth"`
		TTL   int         `json:"ttl"`
		Hosts []MediaHost `json:"hosts"`
	}

	MediaConnResponse struct {
		Status    int        `json:"status,omitempty"`
		MediaConn *MediaConn `json:"media_conn"`
	}

	UploadResponse struct {
		URL   string `json:"url"`
		Error string `json:"error,omitempty"`
	}
)
