package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"wa_outbound/internal/model"
	redisSvc "wa_outbound/internal/service/redis"
	"wa_outbound/internal/service/sender"
	"wa_outbound/internal/utils/log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		store  redisSvc.Store
		http   *http.Client
		sender *sender.Sender

		owner string
		to    string

		mu           sync.Mutex
		lastReceived *model.WebMessageInfo

		running atomic.Bool
	}
)

const searchPageSize = 20

func NewApp(owner string, store redisSvc.Store, httpClient *http.Client) *App {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &App{
		app:   tview.NewApplication(),
		store: store,
		http:  httpClient,
		owner: owner,
	}

	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	return c
}

// UseStore sets where chat state is kept between runs.
func (c *App) UseStore(store redisSvc.Store) {
	c.store = store
}

// Run opens the chat with to and blocks until the ui exits.
func (c *App) Run(ctx context.Context, s *sender.Sender, to string) error {
	if err := model.ValidateJID(to); err != nil {
		return err
	}
	c.sender = s
	c.to = to
	c.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Chat with %s ", to))
	c.printf("[gray]type /help for commands[-]\n")

	return c.renderUI(ctx)
}

func (c *App) Stop() {
	c.app.Stop()
}

// blocking function
func (c *App) renderUI(ctx context.Context) error {
	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := c.input.GetText()
		if line == "" {
			return
		}
		c.input.SetText("")

		go func(line string) {
			if err := c.Execute(ctx, line); err != nil {
				log.Error("command failed", zap.String("line", line), zap.Error(err))
				c.printf("[red]error:[-] %s\n", tview.Escape(err.Error()))
			}
		}(line)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	c.running.Store(true)
	defer c.running.Store(false)
	return c.app.SetRoot(layout, true).SetFocus(c.input).Run()
}

// printf appends to the chat box. It is safe to call from any goroutine.
func (c *App) printf(format string, args ...any) {
	fmt.Fprintf(c.chatbox, format, args...)
	if c.running.Load() {
		c.app.QueueUpdateDraw(func() {
			c.chatbox.ScrollToEnd()
		})
	}
}

// Execute runs one input line: plain text is sent, "/cmd arg" runs a command.
func (c *App) Execute(ctx context.Context, line string) error {
	cmd := parseCommand(line)

	if typ, ok := mediaCommands[cmd.name]; ok {
		data, err := os.ReadFile(cmd.arg)
		if err != nil {
			return err
		}
		return c.send(ctx, data, typ, mediaOptions(cmd.name, cmd.arg, data))
	}
	if mod, ok := chatCommands[cmd.name]; ok {
		return c.modify(ctx, mod)
	}

	switch cmd.name {
	case "":
		if cmd.arg == "" {
			return nil
		}
		return c.send(ctx, cmd.arg, model.MessageTypeText, model.MessageOptions{})
	case "reply":
		c.mu.Lock()
		quoted := c.lastReceived
		c.mu.Unlock()
		if quoted == nil {
			return fmt.Errorf("nothing to reply to")
		}
		return c.send(ctx, cmd.arg, model.MessageTypeText, model.MessageOptions{Quoted: quoted})
	case "location":
		loc, err := parseLocation(cmd.arg)
		if err != nil {
			return err
		}
		return c.send(ctx, loc, model.MessageTypeLocation, model.MessageOptions{})
	case "read", "unread":
		id := ""
		c.mu.Lock()
		if c.lastReceived != nil && cmd.name == "read" {
			id = c.lastReceived.Key.ID
		}
		c.mu.Unlock()
		if _, err := c.sender.SendReadReceipt(ctx, c.to, id, cmd.name == "unread"); err != nil {
			return err
		}
		c.printf("[gray]marked as %s[-]\n", cmd.name)
		return nil
	case "search":
		return c.search(ctx, cmd.arg)
	case "revoke", "clear":
		return c.delete(ctx, cmd.name == "clear")
	case "help":
		c.printf("[gray]/image /gif /video /audio /doc /sticker <path>, /location lat,lng, /reply <text>,\n" +
			"/read, /unread, /pin, /unpin, /mute, /unmute, /archive, /unarchive, /search <text>, /revoke, /clear[-]\n")
		return nil
	}
	return fmt.Errorf("unknown command /%s", cmd.name)
}

func (c *App) send(ctx context.Context, content any, typ model.MessageType, opts model.MessageOptions) error {
	res, err := c.sender.Send(ctx, c.to, content, typ, opts)
	if err != nil {
		return err
	}

	key := model.MessageKey{RemoteJID: c.to, FromMe: true, ID: res.MessageID}
	if err := c.SaveLastSent(ctx, c.to, key); err != nil {
		log.Warn("save last sent failed", zap.Error(err))
	}

	text := cmdText(content, typ)
	c.printf("[yellow]You:[-] %s [gray](%s)[-]\n", tview.Escape(text), res.MessageID)
	return nil
}

func cmdText(content any, typ model.MessageType) string {
	if s, ok := content.(string); ok {
		return s
	}
	if b, ok := content.([]byte); ok {
		return fmt.Sprintf("%s, %d bytes", typ, len(b))
	}
	return string(typ)
}

func (c *App) modify(ctx context.Context, mod model.ChatModification) error {
	opts := model.ModifyOptions{}
	switch mod {
	case model.ChatUnpin, model.ChatUnmute:
		stamp, err := c.GetStamp(ctx, c.to, undoneBy(mod))
		if err != nil {
			return err
		}
		opts.Stamp = stamp
	}

	res, err := c.sender.ModifyChat(ctx, c.to, mod, opts)
	if err != nil {
		return err
	}
	if mod == model.ChatPin || mod == model.ChatMute {
		if err := c.SaveStamp(ctx, c.to, mod, res.Stamp); err != nil {
			log.Warn("save stamp failed", zap.Error(err))
		}
	}
	c.printf("[gray]chat %s (status %d)[-]\n", mod, res.Status)
	return nil
}

func undoneBy(mod model.ChatModification) model.ChatModification {
	if mod == model.ChatUnmute {
		return model.ChatMute
	}
	return model.ChatPin
}

func (c *App) search(ctx context.Context, text string) error {
	res, err := c.sender.SearchMessages(ctx, text, c.to, searchPageSize, 1)
	if err != nil {
		return err
	}

	c.printf("[gray]%d result(s) for %q[-]\n", len(res.Messages), tview.Escape(text))
	for _, m := range res.Messages {
		ts := time.Unix(m.MessageTimestamp, 0).Format(time.DateTime)
		c.printf("  [gray]%s[-] %s\n", ts, describe(m))
	}
	return nil
}

func (c *App) delete(ctx context.Context, forMe bool) error {
	key, err := c.GetLastSent(ctx, c.to)
	if err != nil {
		return err
	}
	if key == nil {
		return fmt.Errorf("nothing sent to %s yet", c.to)
	}

	status, err := c.sender.DeleteMessage(ctx, c.to, *key, forMe)
	if err != nil {
		return err
	}
	c.printf("[gray]deleted %s (status %d)[-]\n", key.ID, status)
	return nil
}

// HandleFrame shows messages the relay pushes to us.
func (c *App) HandleFrame(tag string, payload json.RawMessage) {
	var node model.Node
	if err := json.Unmarshal(payload, &node); err != nil {
		log.Error("Unmarshal frame failed", zap.String("tag", tag), zap.Error(err))
		return
	}

	for _, child := range node.Children() {
		if child.Tag != "message" {
			continue
		}
		var info model.WebMessageInfo
		if err := child.DecodeContent(&info); err != nil {
			log.Error("Unmarshal message failed", zap.Error(err))
			continue
		}
		c.receive(&info)
	}
}

func (c *App) receive(info *model.WebMessageInfo) {
	from := info.Key.RemoteJID
	if info.Key.Participant != "" {
		from = info.Key.Participant
	}

	if info.Key.RemoteJID == c.to {
		c.mu.Lock()
		c.lastReceived = info
		c.mu.Unlock()
	}
	c.printf("[green]%s:[-] %s\n", from, describe(info))

	if typ, m, ok := mediaOf(info.Message); ok {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			data, err := c.fetchMedia(ctx, typ, m)
			if err != nil {
				log.Error("fetch media failed", zap.String("id", info.Key.ID), zap.Error(err))
				c.printf("[red]could not fetch %s[-]\n", info.Key.ID)
				return
			}
			c.printf("[gray]%s: decrypted %d bytes[-]\n", info.Key.ID, len(data))
		}()
	}
}
