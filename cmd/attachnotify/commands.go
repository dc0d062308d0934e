package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/monodebug/attachnotify/internal/cliconfig"
	"github.com/monodebug/attachnotify/internal/engine"
	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/notify"
	"github.com/monodebug/attachnotify/plugins/configwatcher"
)

// cliEvents logs channel activity and reports delivery to one-shot commands.
type cliEvents struct {
	notify.BaseEventHandler
	log     zerolog.Logger
	sent    chan struct{}
	ceiling chan struct{}
}

func newCLIEvents(logger zerolog.Logger) *cliEvents {
	return &cliEvents{
		log:     logger,
		sent:    make(chan struct{}, 1),
		ceiling: make(chan struct{}, 1),
	}
}

func (e *cliEvents) OnConnect(ev notify.ConnectEvent) {
	e.log.Info().Str("endpoint", ev.Endpoint.String()).Dur("took", ev.Duration).Msg("connected to engine")
}

func (e *cliEvents) OnSendSuccess(notify.SendSuccessEvent) {
	select {
	case e.sent <- struct{}{}:
	default:
	}
}

func (e *cliEvents) OnReconnectCeiling(ev notify.ReconnectCeilingEvent) {
	e.log.Warn().
		Str("endpoint", ev.Endpoint.String()).
		Int("pending", ev.Pending).
		Msg("engine unreachable, waiting for the next message")
	select {
	case e.ceiling <- struct{}{}:
	default:
	}
}

func (e *cliEvents) OnReceive(ev notify.ReceiveEvent) {
	e.log.Info().Str("text", ev.Text).Msg("engine replied")
}

func (e *cliEvents) OnDisconnect(ev notify.DisconnectEvent) {
	ent := e.log.Info().Str("endpoint", ev.Endpoint.String())
	if ev.Error != nil {
		ent = ent.Err(ev.Error)
	}
	if ev.Dropped > 0 {
		ent = ent.Int("dropped", ev.Dropped)
	}
	ent.Msg("disconnected from engine")
}

func newSendCommand(c *cli, name string) *cobra.Command {
	var value bool
	var wait time.Duration

	notification := notify.Attach
	valueFlag, valueHelp := "play", "ask the engine to enter play mode"
	if name == "detach" {
		notification = notify.Detach
		valueFlag, valueHelp = "stop-play", "ask the engine to leave play mode"
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Send a single %s notification and exit", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.sendOnce(cmd.Context(), notification(value), wait)
		},
	}
	cmd.Flags().BoolVar(&value, valueFlag, false, valueHelp)
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "how long to wait for delivery")
	return cmd
}

// sendOnce delivers n and returns once it is written, the engine is declared
// unreachable, or wait expires.
func (c *cli) sendOnce(ctx context.Context, n notify.Notification, wait time.Duration) error {
	nc, err := c.cfg.Notify()
	if err != nil {
		return err
	}

	events := newCLIEvents(c.log)
	ch, err := notify.New(nc,
		notify.WithLogger(c.adapter()),
		notify.WithEventHandler(events),
	)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	if err := ch.Start(ctx); err != nil {
		return fmt.Errorf("start channel: %w", err)
	}
	defer func() {
		if err := ch.Stop(); err != nil {
			c.log.Warn().Err(err).Msg("stop channel")
		}
	}()

	if err := ch.Notify(n); err != nil {
		return err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-events.sent:
		c.log.Info().Str("notification", n.String()).Str("endpoint", ch.Endpoint().String()).Msg("delivered")
		return nil
	case <-events.ceiling:
		return fmt.Errorf("%w: %s", notify.ErrReconnectCeiling, ch.Endpoint())
	case <-timer.C:
		return fmt.Errorf("%s not delivered within %s", n, wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newRunCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read notifications from stdin and forward them until interrupted",
		Long: strings.TrimSpace(`
Reads one notification per line from stdin. Accepted forms:

  attach [true|false]
  detach [true|false]
  cmd:Attach;value:True

The engine endpoint is reloaded when the config file changes.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&c.cfg.MetricsAddr, "metrics-addr", c.cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	return cmd
}

func (c *cli) run(ctx context.Context, in io.Reader) error {
	nc, err := c.cfg.Notify()
	if err != nil {
		return err
	}

	opts := []notify.Option{
		notify.WithLogger(c.adapter()),
		notify.WithEventHandler(newCLIEvents(c.log)),
	}
	if c.cfgPath != "" && cliconfig.FileExists(c.cfgPath) {
		base := c.cfg
		opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
			Path:          c.cfgPath,
			DebounceDelay: 100 * time.Millisecond,
			Load: func(path string) (notify.Endpoint, error) {
				cfg, err := cliconfig.LoadEndpoint(path, base)
				return cfg.Endpoint(), err
			},
		}))
	}

	ch, err := notify.New(nc, opts...)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}

	if c.cfg.MetricsAddr != "" {
		serveMetrics(ctx, c.cfg.MetricsAddr, c.log, ch.WritePrometheus)
	}

	if err := ch.Start(ctx); err != nil {
		return fmt.Errorf("start channel: %w", err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			c.log.Error().Err(err).Msg("read stdin")
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("received signal, stopping...")
			break loop
		case line, ok := <-lines:
			if !ok {
				c.flush(ctx, ch)
				break loop
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			n, err := parseLine(line)
			if err != nil {
				c.log.Warn().Err(err).Str("line", line).Msg("skipping input")
				continue
			}
			if err := ch.Notify(n); err != nil {
				c.log.Error().Err(err).Msg("enqueue")
			}
		}
	}

	if err := ch.Stop(); err != nil {
		return fmt.Errorf("stop channel: %w", err)
	}
	return nil
}

// flush waits for queued notifications to go out after stdin closes, bounded
// by the configured timeout.
func (c *cli) flush(ctx context.Context, ch *notify.Channel) {
	deadline := time.NewTimer(c.cfg.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()

	for ch.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			c.log.Warn().Int("pending", ch.Pending()).Msg("input closed with undelivered notifications")
			return
		case <-tick.C:
		}
	}
}

// parseLine accepts "attach [bool]", "detach [bool]" or the wire text form.
func parseLine(line string) (notify.Notification, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "cmd:") {
		return notify.ParseNotification(line)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return notify.Notification{}, errors.New("empty line")
	}
	value := false
	if len(fields) > 1 {
		v, err := strconv.ParseBool(fields[1])
		if err != nil {
			return notify.Notification{}, fmt.Errorf("invalid value %q: %w", fields[1], err)
		}
		value = v
	}

	switch strings.ToLower(fields[0]) {
	case "attach":
		return notify.Attach(value), nil
	case "detach":
		return notify.Detach(value), nil
	default:
		return notify.Notification{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func newEngineCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Run a reference engine listener that logs every notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.engine(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "address to listen on")
	cmd.Flags().BoolVar(&c.cfg.Ack, "ack", c.cfg.Ack, "reply to every frame with ack:<payload>")
	cmd.Flags().StringVar(&c.cfg.MetricsAddr, "metrics-addr", c.cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	return cmd
}

func (c *cli) engine(ctx context.Context) error {
	order, err := frame.ParseByteOrder(c.cfg.ByteOrder)
	if err != nil {
		return err
	}
	codec, err := notify.NewTextCodec(c.cfg.Encoding)
	if err != nil {
		return err
	}

	set := metrics.NewSet()
	frames := set.NewCounter(`attachnotify_engine_frames_total`)
	invalid := set.NewCounter(`attachnotify_engine_invalid_frames_total`)

	handler := func(remote string, payload []byte) []byte {
		frames.Inc()
		text, err := codec.Decode(payload)
		if err != nil {
			invalid.Inc()
			c.log.Warn().Err(err).Str("remote", remote).Msg("undecodable payload")
			return nil
		}
		n, err := notify.ParseNotification(text)
		if err != nil {
			invalid.Inc()
			c.log.Warn().Err(err).Str("remote", remote).Str("text", text).Msg("unrecognised notification")
			return nil
		}
		c.log.Info().Str("remote", remote).Str("cmd", n.Name).Bool("value", n.Value).Msg("notification")
		return nil
	}

	var h engine.Handler = handler
	if c.cfg.Ack {
		h = engine.Ack(handler)
	}

	srv := engine.New(engine.Config{
		Addr:         c.cfg.ListenAddr,
		ByteOrder:    order,
		MaxFrameSize: c.cfg.MaxFrameSize,
		WriteTimeout: c.cfg.Timeout,
	}, h, c.adapter())
	if err := srv.Listen(); err != nil {
		return err
	}

	if c.cfg.MetricsAddr != "" {
		serveMetrics(ctx, c.cfg.MetricsAddr, c.log, set.WritePrometheus)
	}

	return srv.Serve(ctx)
}

// serveMetrics exposes write plus process metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger, write func(io.Writer)) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		write(w)
		metrics.WriteProcessMetrics(w)
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
}
