// Package main is the entry point for the Lumen player frontend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend/mpdbridge"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend/ws"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/config"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/dispatch"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/ingest"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/store"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/version"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/views"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	backendKind := flag.String("backend", "", "Backend kind: ws or mpd (overrides config)")
	wsURL := flag.String("ws-url", "", "Playback daemon WebSocket URL (overrides config)")
	mpdHost := flag.String("mpd-host", "", "MPD host (overrides config)")
	mpdPort := flag.Int("mpd-port", 0, "MPD port (overrides config)")
	mpdPassword := flag.String("mpd-password", "", "MPD password (overrides config)")
	musicDir := flag.String("music-dir", "", "Directory offered to the scan command")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	applyFlagOverrides(&cfg, *backendKind, *wsURL, *mpdHost, *mpdPort, *mpdPassword)
	if *debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	applyLogLevel(cfg.Logging.Level)

	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Player Frontend State Layer")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("backend", string(cfg.Backend.Kind)).
		Str("ws_url", cfg.Backend.WsURL).
		Str("mpd_host", cfg.MPD.Host).
		Int("mpd_port", cfg.MPD.Port).
		Str("log_level", cfg.Logging.Level).
		Msg("Configuration")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to playback daemon")
	}
	defer client.Close()
	log.Info().Msg("Playback daemon connection established")

	st := store.New()
	engine := views.NewEngine(st)

	// Initial fetch before events start flowing, so the first status
	// push lands on a populated mirror.
	fetchCtx, cancelFetch := context.WithTimeout(ctx, time.Duration(cfg.Backend.TimeoutMS)*time.Millisecond)
	init, err := client.FetchInitialState(fetchCtx)
	cancelFetch()
	if err != nil {
		log.Fatal().Err(err).Msg("Initial state fetch failed")
	}
	st.ApplyInitial(init)
	log.Info().
		Int("tracks", len(init.Library)).
		Int("playlists", len(init.Playlists)).
		Msg("Initial state applied")

	channel := ingest.Open(client, st, ingest.LogSink{})
	defer channel.Close()

	dispatcher := dispatch.New(client, st, staticPicker{dir: *musicDir})
	defer dispatcher.Close()

	// Log now-playing transitions as the presentation layer stand-in.
	unsubscribe := st.Subscribe(nowPlayingLogger(engine))
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runConsole(gctx, dispatcher, engine, st)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case <-client.Done():
			return fmt.Errorf("playback daemon connection lost")
		}
	})

	log.Info().Msg("Ready. Type 'help' for commands.")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Shutting down")
		return
	}
	log.Info().Msg("Shutdown complete")
}

// applyFlagOverrides lets individual flags win over the config file.
func applyFlagOverrides(cfg *config.Config, kind, wsURL, mpdHost string, mpdPort int, mpdPassword string) {
	if kind != "" {
		cfg.Backend.Kind = config.BackendKind(kind)
	}
	if wsURL != "" {
		cfg.Backend.WsURL = wsURL
	}
	if mpdHost != "" {
		cfg.MPD.Host = mpdHost
	}
	if mpdPort != 0 {
		cfg.MPD.Port = mpdPort
	}
	if mpdPassword != "" {
		cfg.MPD.Password = mpdPassword
	}
}

func applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// client is the backend surface main needs beyond backend.Client:
// ws connections report loss via Done, the MPD bridge never does.
type client interface {
	backend.Client
	Done() <-chan struct{}
}

func connectBackend(ctx context.Context, cfg config.Config) (client, error) {
	switch cfg.Backend.Kind {
	case config.BackendWS:
		timeout := time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond
		return ws.DialRetry(ctx, cfg.Backend.WsURL, timeout)
	case config.BackendMPD:
		bridge, err := mpdbridge.Connect(cfg.MPD.Host, cfg.MPD.Port, cfg.MPD.Password)
		if err != nil {
			return nil, err
		}
		return neverDone{bridge}, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}

type neverDone struct {
	*mpdbridge.Bridge
}

func (neverDone) Done() <-chan struct{} { return nil }

// staticPicker stands in for the platform folder dialog: it always
// offers the directory given on the command line.
type staticPicker struct {
	dir string
}

func (p staticPicker) PickFolder(ctx context.Context) (string, bool, error) {
	if p.dir == "" {
		return "", false, nil
	}
	return p.dir, true, nil
}

// nowPlayingLogger logs track transitions so a headless run shows what
// the mirror believes is playing.
func nowPlayingLogger(engine *views.Engine) store.Subscriber {
	var lastTrackID string
	var lastPlaying bool
	return func(snap store.Snapshot) {
		if snap.Playback.CurrentTrackID == lastTrackID && snap.Playback.IsPlaying == lastPlaying {
			return
		}
		lastTrackID = snap.Playback.CurrentTrackID
		lastPlaying = snap.Playback.IsPlaying

		p := engine.Project()
		if !p.HasCurrentTrack {
			log.Info().Msg("Playback stopped")
			return
		}
		log.Info().
			Str("title", p.CurrentTrack.Title).
			Str("artist", p.CurrentTrack.Artist).
			Bool("playing", snap.Playback.IsPlaying).
			Msg("Now playing")
	}
}

// runConsole reads commands from stdin and feeds them to the
// dispatcher. It is a debugging surface, not a UI.
func runConsole(ctx context.Context, d *dispatch.Dispatcher, engine *views.Engine, st *store.Store) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// stdin closed (e.g. running detached); idle until signalled.
				<-ctx.Done()
				return ctx.Err()
			}
			if quit := runCommand(ctx, d, engine, st, line); quit {
				return nil
			}
		}
	}
}

func runCommand(ctx context.Context, d *dispatch.Dispatcher, engine *views.Engine, st *store.Store, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help":
		printHelp()
	case "now":
		printNowPlaying(engine, st)
	case "toggle":
		err = d.TogglePlayback(ctx)
	case "pause":
		err = d.Pause(ctx)
	case "resume":
		err = d.Resume(ctx)
	case "play":
		if len(args) != 1 {
			fmt.Println("usage: play <track-id>")
			return false
		}
		err = d.PlayTrack(ctx, args[0])
	case "vol":
		if len(args) != 1 {
			fmt.Println("usage: vol <0..1>")
			return false
		}
		var v float64
		if v, err = strconv.ParseFloat(args[0], 64); err == nil {
			d.SetVolume(v)
		}
	case "shuffle":
		err = d.ToggleShuffle(ctx)
	case "loop":
		err = d.CycleLoopMode(ctx)
	case "playlist":
		if len(args) != 1 {
			fmt.Println("usage: playlist <playlist-id>")
			return false
		}
		err = d.SelectPlaylist(ctx, args[0])
	case "scan":
		err = d.ScanLibrary(ctx)
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}
	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return false
}

func printHelp() {
	fmt.Println(`commands:
  now                 show current playback state
  toggle              toggle play/pause
  pause | resume      explicit pause / resume
  play <track-id>     play a library track
  vol <0..1>          set volume
  shuffle             toggle shuffle
  loop                cycle loop mode (off / playlist / single)
  playlist <id>       select the active playlist
  scan                rescan the music directory (-music-dir)
  quit                exit`)
}

func printNowPlaying(engine *views.Engine, st *store.Store) {
	snap := st.Snapshot()
	p := engine.Project()
	if !p.HasCurrentTrack {
		fmt.Println("nothing playing")
	} else {
		state := "paused"
		if snap.Playback.IsPlaying {
			state = "playing"
		}
		fmt.Printf("%s: %s - %s [%s] %.0f%%\n",
			state, p.CurrentTrack.Artist, p.CurrentTrack.Title,
			formatElapsed(snap.Playback), p.ProgressRatio*100)
	}
	fmt.Printf("volume %.0f%%  shuffle %v  loop %s  tracks %d\n",
		snap.Playback.Volume*100, snap.Playback.Shuffle,
		snap.Playback.Loop, len(snap.Library))
}

func formatElapsed(pb model.PlaybackSnapshot) string {
	elapsed := int(pb.ElapsedSecs)
	return fmt.Sprintf("%d:%02d / %d:%02d",
		elapsed/60, elapsed%60, pb.DurationSecs/60, pb.DurationSecs%60)
}
