package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"wa_outbound/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

// send <jid> <content>: content is text, a file path for media, or lat,lng for locations.
func sendCmd() *cobra.Command {
	var (
		typ       string
		mime      string
		caption   string
		filename  string
		thumbnail string
		vcard     string
		quoteID   string
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:   "send <jid> <content>",
		Short: "Send a text, media, location or contact message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jid := args[0]
			mt := model.MessageType(typ)

			opts := model.MessageOptions{
				Mimetype:         mime,
				Caption:          caption,
				Filename:         filename,
				SkipIDValidation: skipCheck,
			}
			if thumbnail != "" {
				data, err := os.ReadFile(thumbnail)
				if err != nil {
					return err
				}
				opts.Thumbnail = data
			}

			content, err := buildContent(mt, args[1], vcard, &opts)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := timeout(cmd.Context(), mt.IsMedia())
			defer cancel()

			if quoteID != "" {
				if s.outbox == nil {
					return fmt.Errorf("--quote needs the mongo outbox")
				}
				rec, err := s.outbox.GetByMessageID(ctx, cfg.OwnJID, quoteID)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("message %s not found in outbox", quoteID)
				}
				if opts.Quoted, err = rec.Info(); err != nil {
					return err
				}
			}

			res, err := s.sender.Send(ctx, jid, content, mt, opts)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", string(model.MessageTypeText), "message type, e.g. conversation, imageMessage, documentMessage, locationMessage")
	cmd.Flags().StringVar(&mime, "mimetype", "", "media mimetype (sniffed for documents when empty)")
	cmd.Flags().StringVar(&caption, "caption", "", "media caption")
	cmd.Flags().StringVar(&filename, "filename", "", "document file name")
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "path of a jpeg thumbnail")
	cmd.Flags().StringVar(&vcard, "vcard", "", "vcard body for contact messages")
	cmd.Flags().StringVar(&quoteID, "quote", "", "id of an outbox message to quote")
	cmd.Flags().BoolVar(&skipCheck, "skip-jid-check", false, "do not validate the recipient jid")
	return cmd
}

func buildContent(mt model.MessageType, arg, vcard string, opts *model.MessageOptions) (any, error) {
	switch {
	case mt.IsMedia():
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		if mt == model.MessageTypeDocument && opts.Mimetype == "" {
			opts.Mimetype = mimetype.Detect(data).String()
		}
		return data, nil
	case mt == model.MessageTypeLocation || mt == model.MessageTypeLiveLocation:
		lat, lng, err := parseLatLng(arg)
		if err != nil {
			return nil, err
		}
		if mt == model.MessageTypeLiveLocation {
			return &model.LiveLocationMessage{DegreesLatitude: lat, DegreesLongitude: lng}, nil
		}
		return &model.LocationMessage{DegreesLatitude: lat, DegreesLongitude: lng}, nil
	case mt == model.MessageTypeContact:
		return &model.ContactMessage{DisplayName: arg, Vcard: vcard}, nil
	}
	return arg, nil
}

func parseLatLng(arg string) (float64, float64, error) {
	a, b, ok := strings.Cut(arg, ",")
	if !ok {
		return 0, 0, fmt.Errorf("location must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}
