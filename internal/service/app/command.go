package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"wa_outbound/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rivo/tview"
)

type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg". Plain text has an empty name.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{arg: line}
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}
}

var mediaCommands = map[string]model.MessageType{
	"image":   model.MessageTypeImage,
	"gif":     model.MessageTypeImage,
	"video":   model.MessageTypeVideo,
	"audio":   model.MessageTypeAudio,
	"doc":     model.MessageTypeDocument,
	"sticker": model.MessageTypeSticker,
}

var chatCommands = map[string]model.ChatModification{
	"pin":       model.ChatPin,
	"unpin":     model.ChatUnpin,
	"mute":      model.ChatMute,
	"unmute":    model.ChatUnmute,
	"archive":   model.ChatArchive,
	"unarchive": model.ChatUnarchive,
}

// mediaOptions picks the options for sending data read from path.
// The mimetype is sniffed from the content.
func mediaOptions(name, path string, data []byte) model.MessageOptions {
	opts := model.MessageOptions{Mimetype: mimetype.Detect(data).String()}
	switch name {
	case "gif":
		opts.Mimetype = model.MimetypeGIF
	case "doc":
		opts.Filename = filepath.Base(path)
	}
	return opts
}

func parseLocation(arg string) (*model.LocationMessage, error) {
	lat, lng, ok := strings.Cut(arg, ",")
	if !ok {
		return nil, fmt.Errorf("want lat,lng")
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil, err
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return nil, err
	}
	return &model.LocationMessage{DegreesLatitude: la, DegreesLongitude: lo}, nil
}

// describe renders one envelope as a chat line body.
func describe(info *model.WebMessageInfo) string {
	if info == nil || info.Message == nil {
		return "[gray](empty)[-]"
	}

	switch f := info.Message.Fragment().(type) {
	case *model.ExtendedTextMessage:
		return tview.Escape(f.Text)
	case *model.ImageMessage:
		return mediaLine("image", f.MediaInfo, f.Caption)
	case *model.VideoMessage:
		kind := "video"
		if f.GIFPlayback {
			kind = "gif"
		}
		return mediaLine(kind, f.MediaInfo, f.Caption)
	case *model.AudioMessage:
		return mediaLine("audio", f.MediaInfo, "")
	case *model.DocumentMessage:
		return mediaLine("document", f.MediaInfo, f.FileName)
	case *model.StickerMessage:
		return mediaLine("sticker", f.MediaInfo, "")
	case *model.LocationMessage:
		return fmt.Sprintf("[blue]location[-] %.5f,%.5f %s", f.DegreesLatitude, f.DegreesLongitude, tview.Escape(f.Name))
	case *model.LiveLocationMessage:
		return fmt.Sprintf("[blue]live location[-] %.5f,%.5f", f.DegreesLatitude, f.DegreesLongitude)
	case *model.ContactMessage:
		return "[blue]contact[-] " + tview.Escape(f.DisplayName)
	case *model.ProtocolMessage:
		if f.Kind == model.ProtocolMessageRevoke && f.Key != nil {
			return "[gray]message " + f.Key.ID + " was deleted[-]"
		}
	}
	return "[gray](unsupported message)[-]"
}

func mediaLine(kind string, m model.MediaInfo, text string) string {
	line := fmt.Sprintf("[blue]%s[-] %s, %d bytes", kind, m.Mimetype, m.FileLength)
	if text != "" {
		line += ": " + tview.Escape(text)
	}
	return line
}
