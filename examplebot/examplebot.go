// Package examplebot declares a small demo bot on top of the dispatch
// core: a couple of commands, an auto-reply, and a scheduled network
// report broadcast to every active chat.
package examplebot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	st "github.com/showwin/speedtest-go/speedtest"

	"botlib/internal/core"
	"botlib/internal/transport"
	"botlib/pkg/tgui"
)

// Spec returns the bot's behavior declarations.
func Spec() *core.BotSpec {
	started := time.Now()
	reporter := &netReport{maxAge: 30 * time.Minute}

	return core.NewBotSpec().
		Command("/ping",
			[]core.ParamRole{core.RoleChatID, core.RoleMessenger},
			func(ctx context.Context, call *core.Call) error {
				return call.Reply(ctx, "pong")
			}).
		Command("/start",
			[]core.ParamRole{core.RoleChatID, core.RoleUserID, core.RoleMessenger, core.RoleEventLog},
			func(ctx context.Context, call *core.Call) error {
				kb := tgui.NewInline().
					Row(tgui.URLBtn("Source", "https://github.com/telebot/telebot")).
					Markup()
				_, err := call.Messenger.SendText(ctx, call.Chat(),
					"Hi! I'm alive. Try /ping, /uptime, or just say hello.",
					&transport.SendOptions{ReplyMarkup: kb})
				if err == nil && call.User.Known {
					call.Events.LogUserAction(ctx, call.User.ID, "start")
				}
				return err
			}).
		Command("/uptime",
			[]core.ParamRole{core.RoleChatID, core.RoleMessenger},
			func(ctx context.Context, call *core.Call) error {
				return call.Reply(ctx, fmt.Sprintf("up %s", time.Since(started).Round(time.Second)))
			}).
		AdminCommand("/netreport",
			[]core.ParamRole{core.RoleChatID, core.RoleMessenger},
			func(ctx context.Context, call *core.Call) error {
				// The measurement takes a while; park a placeholder and
				// edit it in place once the numbers are in.
				ref, err := call.Messenger.SendText(ctx, call.Chat(), "Measuring, hold on...", nil)
				if err != nil {
					return err
				}
				text, err := reporter.get(ctx)
				if err != nil {
					return fmt.Errorf("net report: %w", err)
				}
				return call.Messenger.EditText(ctx, ref, text, nil)
			}).
		AutoReply("hello",
			[]core.ParamRole{core.RoleChatID, core.RoleUserID, core.RoleMessenger},
			func(ctx context.Context, call *core.Call) error {
				return call.Reply(ctx, "Hello there!")
			}).
		ScheduledEvery("net_report_broadcast", 6*3600,
			[]core.ParamRole{core.RoleChatID, core.RoleMessenger, core.RoleEventLog},
			func(ctx context.Context, call *core.Call) error {
				text, err := reporter.get(ctx)
				if err != nil {
					return fmt.Errorf("net report: %w", err)
				}
				if err := call.Reply(ctx, text); err != nil {
					return err
				}
				call.Events.LogBotAction(ctx, "net_report_broadcast", fmt.Sprintf("chat %d", call.ChatID))
				return nil
			})
}

// netReport measures once and serves the cached result until it goes
// stale. The scheduled broadcast runs per chat per tick; without the cache
// every chat would trigger its own multi-second speed test.
type netReport struct {
	mu     sync.Mutex
	text   string
	at     time.Time
	maxAge time.Duration
}

func (n *netReport) get(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.text != "" && time.Since(n.at) < n.maxAge {
		return n.text, nil
	}
	text, err := measure(ctx)
	if err != nil {
		return "", err
	}
	n.text = text
	n.at = time.Now()
	return text, nil
}

func measure(ctx context.Context) (string, error) {
	c := st.New()
	defer func() {
		c.Snapshots().Clean()
		c.Reset()
	}()

	servers, err := c.FetchServerListContext(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch server list: %w", err)
	}
	if a := servers.Available(); a != nil {
		servers = *a
	}
	if len(servers) == 0 {
		return "", fmt.Errorf("no servers available")
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Distance < servers[j].Distance })
	s := servers[0]

	if err := s.PingTestContext(ctx, nil); err != nil {
		return "", fmt.Errorf("ping test: %w", err)
	}
	if err := s.DownloadTestContext(ctx); err != nil {
		return "", fmt.Errorf("download test: %w", err)
	}
	if err := s.UploadTestContext(ctx); err != nil {
		return "", fmt.Errorf("upload test: %w", err)
	}

	return fmt.Sprintf("Network report (%s)\nping: %s\ndown: %.1f Mbps\nup: %.1f Mbps",
		s.Name, s.Latency.Round(time.Millisecond), s.DLSpeed.Mbps(), s.ULSpeed.Mbps()), nil
}
