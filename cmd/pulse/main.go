package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"github.com/soniq-labs/pulse/internal/beat"
	"github.com/soniq-labs/pulse/internal/engine"
	"github.com/soniq-labs/pulse/internal/feature"
	"github.com/soniq-labs/pulse/internal/web"
)

func main() {
	var (
		input       = flag.String("input", "", "Track data JSON from the feature extractor")
		synthetic   = flag.Bool("synthetic", false, "Run against synthetic track data (for testing)")
		synthLen    = flag.Float64("synthetic-duration", 120, "Synthetic track length in seconds")
		seed        = flag.Int64("seed", 0, "Synthetic generator seed (0 = time-based)")
		targetFPS   = flag.Float64("fps", 60, "Engine tick rate")
		port        = flag.Int("port", 0, "Control server port (0 disables)")
		mode        = flag.String("mode", "adaptive", "Normalization mode (legacy|adaptive)")
		beatPolicy  = flag.String("beat-policy", "strobe", "Beat response (strobe|punch)")
		punchCamera = flag.Bool("punch-camera", false, "Punch policy also kicks camera speed")
		sensitivity = flag.Float64("sensitivity", 0.5, "Adaptive sensitivity in [0,1]")
		baseSpeed   = flag.Float64("base-camera-speed", 1.0, "Base camera speed floor while playing")
		showStatus  = flag.Bool("status", true, "Print a live status line")
		configPath  = flag.String("config", "", "Optional saved control-surface config JSON")
	)

	flag.Parse()

	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *input == "" && !*synthetic {
		log.Fatalf("either -input or -synthetic is required")
	}

	logger := log.New(os.Stderr, "[pulse] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var track *feature.TrackData
	if *input != "" {
		td, err := feature.LoadTrackData(*input)
		if err != nil {
			logger.Fatalf("load track data: %v", err)
		}
		track = td
		logger.Printf("loaded %d frames, %d events from %s", len(td.History), len(td.Timeline), *input)
	} else {
		synthSeed := *seed
		if synthSeed == 0 {
			synthSeed = time.Now().UnixNano()
		}
		track = feature.Synthesize(feature.SynthConfig{Duration: *synthLen, Seed: synthSeed})
		logger.Printf("synthesized %d frames, %d events", len(track.History), len(track.Timeline))
	}

	cfg := engine.Config{
		BaseCameraSpeed: *baseSpeed,
		BeatPolicy:      beat.ParsePolicy(*beatPolicy),
		PunchCamera:     *punchCamera,
		Sensitivity:     *sensitivity,
		Mode:            engine.ParseMode(*mode),
		Log:             logger,
	}
	if *configPath != "" {
		if saved, err := web.LoadConfig(*configPath); err == nil {
			cfg.Sensitivity = saved.Sensitivity
			cfg.Mode = engine.ParseMode(saved.Mode)
			cfg.BeatPolicy = beat.ParsePolicy(saved.BeatPolicy)
			logger.Printf("applied saved config from %s", *configPath)
		} else {
			logger.Printf("saved config unavailable: %v", err)
		}
	}

	session := engine.New(cfg)
	session.LoadTrack(track)
	session.SetPlaying(true)

	proxy := newSessionProxy(session)
	if *port > 0 {
		server := web.NewServer(proxy, logger)
		session.Subscribe(server.Publish)
		go func() {
			if err := server.Start(*port); err != nil {
				logger.Printf("control server stopped: %v", err)
			}
		}()
	}

	if err := run(ctx, session, proxy, *targetFPS, *showStatus, logger); err != nil && ctx.Err() == nil {
		logger.Fatalf("runtime error: %v", err)
	}
	fmt.Println()
}

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventTogglePlay
	inputEventToggleMode
	inputEventTogglePolicy
	inputEventSensitivityUp
	inputEventSensitivityDown
)

func run(ctx context.Context, session *engine.Session, proxy *sessionProxy, fps float64, showStatus bool, logger *log.Logger) error {
	frame := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	events := startInputListener(inputCtx, logger)

	songTime := 0.0
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch evt {
			case inputEventQuit:
				return nil
			case inputEventTogglePlay:
				session.SetPlaying(!session.Playing())
			case inputEventToggleMode:
				if session.Mode() == engine.ModeAdaptive {
					session.SetMode(engine.ModeLegacy)
				} else {
					session.SetMode(engine.ModeAdaptive)
				}
			case inputEventTogglePolicy:
				if session.BeatPolicy() == beat.PolicyStrobe {
					session.SetBeatPolicy(beat.PolicyPunch)
				} else {
					session.SetBeatPolicy(beat.PolicyStrobe)
				}
			case inputEventSensitivityUp:
				session.SetSensitivity(session.Sensitivity() + 0.05)
			case inputEventSensitivityDown:
				session.SetSensitivity(session.Sensitivity() - 0.05)
			}
		case now := <-ticker.C:
			proxy.drain()
			if session.Playing() {
				songTime += now.Sub(last).Seconds()
			}
			last = now
			u := session.Tick(songTime, now)
			if showStatus {
				printStatus(session, songTime, u)
			}
		}
	}
}

func printStatus(session *engine.Session, songTime float64, u engine.Uniforms) {
	st := session.Status()
	line := fmt.Sprintf("t=%6.1fs mode=%s(%s) beat=%s e=%.2f lo=%.2f hi=%.2f tr=%.2f cam=%.2f",
		songTime, st.Mode, st.EffectiveMode, st.BeatPolicy,
		u.Energy, u.LowEnergy, u.HighEnergy, u.Transients, u.CameraSpeed)

	if fd := int(os.Stdout.Fd()); fd >= 0 {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 && len(line) > w {
			line = line[:w]
		}
	}
	fmt.Print("\r" + line + strings.Repeat(" ", 2))
}

func startInputListener(ctx context.Context, logger *log.Logger) chan inputEvent {
	if err := keyboard.Open(); err != nil {
		logger.Printf("keyboard input disabled: %v", err)
		return nil
	}

	events := make(chan inputEvent, 16)
	closeOnce := &sync.Once{}

	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
				events <- inputEventQuit
				return
			case key == keyboard.KeySpace:
				events <- inputEventTogglePlay
			case char == 'm' || char == 'M':
				events <- inputEventToggleMode
			case char == 'b' || char == 'B':
				events <- inputEventTogglePolicy
			case char == '+' || char == '=':
				events <- inputEventSensitivityUp
			case char == '-':
				events <- inputEventSensitivityDown
			}
		}
	}()
	return events
}
