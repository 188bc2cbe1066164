package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/dinekit-go/internal/cli/output"
	"github.com/yndnr/dinekit-go/internal/client/config"
	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/infra/confloader"
	"github.com/yndnr/dinekit-go/internal/infra/shutdown"
	"github.com/yndnr/dinekit-go/internal/realtime"
	"github.com/yndnr/dinekit-go/internal/telemetry/logger"
)

// LiveCommand returns the live subcommand group.
func LiveCommand() *cli.Command {
	tokenFlag := &cli.StringFlag{
		Name:  "token",
		Usage: "auth token (default: the token stored by auth login)",
	}
	tableFlag := &cli.StringFlag{
		Name:    "table",
		Aliases: []string{"T"},
		Usage:   "table to join",
	}
	waitFlag := &cli.DurationFlag{
		Name:  "wait",
		Usage: "how long to wait for a connection",
		Value: 10 * time.Second,
	}

	return &cli.Command{
		Name:  "live",
		Usage: "Realtime channels",
		Subcommands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Connect and print events until interrupted",
				Flags: []cli.Flag{
					tokenFlag,
					tableFlag,
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "stop after this long (0 runs until SIGINT/SIGTERM)",
					},
				},
				Action: liveWatch,
			},
			{
				Name:  "emit",
				Usage: "Send one event",
				Subcommands: []*cli.Command{
					{
						Name:  "request",
						Usage: "Call staff to the table",
						Flags: []cli.Flag{
							tokenFlag, tableFlag, waitFlag,
							&cli.StringFlag{Name: "type", Usage: "request type (e.g. water, bill)", Required: true},
							&cli.StringFlag{Name: "message"},
						},
						Action: liveEmitRequest,
					},
					{
						Name:  "order",
						Usage: "Place an order",
						Flags: []cli.Flag{
							tokenFlag, tableFlag, waitFlag,
							&cli.StringSliceFlag{Name: "item", Usage: "MENU_ITEM_ID[:QUANTITY], repeatable", Required: true},
							&cli.StringFlag{Name: "notes"},
						},
						Action: liveEmitOrder,
					},
					{
						Name:      "cancel",
						Usage:     "Cancel an order",
						ArgsUsage: "ORDER_ID",
						Flags: []cli.Flag{
							tokenFlag, tableFlag, waitFlag,
							&cli.IntFlag{Name: "table-number", Required: true},
						},
						Action: liveEmitCancel,
					},
				},
			},
		},
	}
}

// liveToken returns the --token flag or the stored session token.
func liveToken(c *cli.Context, env *Env) (string, error) {
	if t := c.String("token"); t != "" {
		return t, nil
	}
	sess, err := env.Session(c.Context)
	if err != nil {
		return "", err
	}
	if t, ok := sess.AuthToken(c.Context); ok && t != "" {
		return t, nil
	}
	return "", errors.New("not signed in: run auth login or pass --token")
}

func newManager(env *Env, opts ...realtime.Option) (*realtime.Manager, error) {
	base := []realtime.Option{
		realtime.WithLogger(env.Logger),
		realtime.WithMetrics(env.Metrics),
	}
	return realtime.NewManager(env.Config.Realtime, append(base, opts...)...)
}

// liveEvent is one printed line of live watch.
type liveEvent struct {
	Time    time.Time `json:"time" yaml:"time"`
	Channel string    `json:"channel" yaml:"channel"`
	Event   string    `json:"event" yaml:"event"`
	Data    any       `json:"data,omitempty" yaml:"data,omitempty"`
}

// eventPrinter streams events: JSON lines, YAML documents or text lines.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format output.Format
}

func (p *eventPrinter) print(ch realtime.ChannelName, event string, data any) {
	ev := liveEvent{Time: time.Now(), Channel: string(ch), Event: event, Data: data}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.format {
	case output.FormatJSON:
		_ = json.NewEncoder(p.w).Encode(ev)
	case output.FormatYAML:
		fmt.Fprintln(p.w, "---")
		_ = yaml.NewEncoder(p.w).Encode(ev)
	default:
		payload := ""
		if data != nil {
			b, _ := json.Marshal(data)
			payload = string(b)
		}
		fmt.Fprintf(p.w, "%s  %-8s %-22s %s\n", ev.Time.Format("15:04:05"), ev.Channel, ev.Event, payload)
	}
}

func liveWatch(c *cli.Context) error {
	env := envFrom(c)
	token, err := liveToken(c, env)
	if err != nil {
		return err
	}
	m, err := newManager(env)
	if err != nil {
		return err
	}

	p := &eventPrinter{w: env.Out, format: env.Format}
	m.OnOrderStatusChange(func(v domain.OrderStatusChange) {
		p.print(realtime.ChannelOrder, realtime.EventOrderStatusChanged, v)
	})
	m.OnKitchenUpdate(func(v domain.KitchenUpdate) {
		p.print(realtime.ChannelKitchen, realtime.EventKitchenUpdate, v)
	})
	m.OnOrderReady(func(v domain.OrderReadyNotice) {
		p.print(realtime.ChannelKitchen, realtime.EventOrderReady, v)
	})
	m.OnTableStatusUpdate(func(v domain.TableStatus) {
		p.print(realtime.ChannelGeneral, realtime.EventTableStatusUpdate, v)
	})
	m.OnMenuChanged(func(v domain.MenuChange) {
		p.print(realtime.ChannelGeneral, realtime.EventMenuChanged, v)
	})
	m.OnStatus(func(st realtime.Status) {
		data := map[string]any{"state": st.State.String(), "attempts": st.Attempts}
		if st.Err != nil {
			data["error"] = st.Err.Error()
		}
		p.print(st.Channel, "status", data)
	})

	ctx, stop := shutdown.Context(c.Context)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	h := shutdown.NewHandler(5*time.Second, env.Logger)
	h.OnShutdown("realtime", func(context.Context) error {
		m.Close()
		return nil
	})
	if env.ConfigPath != "" {
		w, err := watchLogLevel(env)
		if err != nil {
			env.Logger.Warn("config watch disabled", "error", err)
		} else {
			h.OnShutdown("config-watcher", func(context.Context) error { return w.Stop() })
		}
	}

	m.Connect(ctx, token, c.String("table"))
	return h.Wait(ctx)
}

// watchLogLevel re-applies log.level whenever the config file changes.
func watchLogLevel(env *Env) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(env.ConfigPath, confloader.WithWatcherLogger(env.Logger))
	if err != nil {
		return nil, err
	}
	w.OnChange(func(path string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			env.Logger.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.Level() {
			logger.SetLevel(cfg.Log.Level)
			env.Logger.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}

// connectFor connects and waits until ready reports true, a channel that
// ready depends on fails, or the wait flag elapses.
func connectFor(c *cli.Context, channels ...realtime.ChannelName) (*realtime.Manager, error) {
	env := envFrom(c)
	token, err := liveToken(c, env)
	if err != nil {
		return nil, err
	}
	m, err := newManager(env)
	if err != nil {
		return nil, err
	}
	env.OnClose(func() error {
		m.Close()
		return nil
	})

	changed := make(chan struct{}, 1)
	m.OnStatus(func(realtime.Status) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("wait"))
	defer cancel()

	spin := output.NewSpinner(env.Err, "connecting to "+env.Config.Realtime.Endpoint)
	spin.Start()
	m.Connect(c.Context, token, c.String("table"))

	for {
		var failed []error
		for _, st := range m.Snapshot() {
			if !contains(channels, st.Channel) {
				continue
			}
			if st.State == realtime.StateConnected {
				spin.Success(string(st.Channel) + " channel connected")
				return m, nil
			}
			if st.State == realtime.StateFailed {
				failed = append(failed, fmt.Errorf("%s: %w", st.Channel, st.Err))
			}
		}
		if len(failed) == len(channels) {
			spin.Fail("connection failed")
			return nil, errors.Join(failed...)
		}

		select {
		case <-ctx.Done():
			spin.Fail("timed out")
			return nil, fmt.Errorf("no connection within %s: %w", c.Duration("wait"), realtime.ErrConnection)
		case <-changed:
		}
	}
}

func contains(list []realtime.ChannelName, name realtime.ChannelName) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func liveEmitRequest(c *cli.Context) error {
	m, err := connectFor(c, realtime.ChannelGeneral, realtime.ChannelOrder)
	if err != nil {
		return err
	}
	req := domain.CustomerRequest{
		TableID: c.String("table"),
		Type:    c.String("type"),
		Message: c.String("message"),
	}
	if !m.EmitCustomerRequest(req) {
		return realtime.ErrNotConnected
	}
	return nil
}

// parseItems parses MENU_ITEM_ID[:QUANTITY] values.
func parseItems(specs []string) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(specs))
	for _, spec := range specs {
		id, qty, found := strings.Cut(spec, ":")
		if id == "" {
			return nil, fmt.Errorf("item %q: empty menu item id", spec)
		}
		n := 1
		if found {
			v, err := strconv.Atoi(qty)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("item %q: quantity must be a positive integer", spec)
			}
			n = v
		}
		items = append(items, domain.OrderItem{MenuItemID: id, Quantity: n})
	}
	return items, nil
}

func liveEmitOrder(c *cli.Context) error {
	items, err := parseItems(c.StringSlice("item"))
	if err != nil {
		return err
	}
	m, err := connectFor(c, realtime.ChannelOrder)
	if err != nil {
		return err
	}
	m.EmitNewOrder(domain.Order{
		TableID: c.String("table"),
		Items:   items,
		Notes:   c.String("notes"),
	})
	return nil
}

func liveEmitCancel(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	m, err := connectFor(c, realtime.ChannelOrder)
	if err != nil {
		return err
	}
	m.EmitOrderCancelled(c.Args().First(), c.Int("table-number"))
	return nil
}
