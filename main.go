package main

import (
	"flag"
	"log"
	"os"
	"sync/atomic"

	"github.com/leonelquinteros/gotext"
	"gopkg.in/natefinch/lumberjack.v2"

	engineinput "crossroads/pkg/engine/input"
	"crossroads/pkg/engine/timer"
	"crossroads/pkg/game/config"
	"crossroads/pkg/game/menu"
	"crossroads/pkg/game/play"
	"crossroads/pkg/game/renderer"
	ebitenrenderer "crossroads/pkg/game/renderer/ebiten"
	"crossroads/pkg/game/renderer/tui"
	"crossroads/pkg/game/state"
	"crossroads/pkg/game/voice"
	"crossroads/pkg/story"
)

func initGettext() {
	gotext.Configure("locales", "en_GB", "default")
}

// setupLogging routes the log to a rotating file when configured. The
// windowed backend always logs to a file; it has no stderr worth reading.
func setupLogging(cfg *config.Config, windowed bool) {
	if windowed && cfg.LogFile == "" {
		cfg.LogFile = "crossroads.log"
	}
	if cfg.LogFile == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
}

// loadStory loads the story file, or the built-in story when path is empty,
// and logs any integrity problems. Dangling choices and unreachable nodes
// are tolerated at runtime; they only matter to the story's author.
func loadStory(path string) *story.Graph {
	var graph *story.Graph
	var err error
	if path == "" {
		graph, err = story.Default()
	} else {
		graph, err = story.LoadFile(path)
	}
	if err != nil {
		log.Fatalf("story: %v", err)
	}

	report := story.Validate(graph)
	for _, d := range report.Dangling {
		log.Printf("story: node %s choice %q targets missing node %q", d.NodeID, d.Label, d.Target)
	}
	for _, id := range report.Unreachable {
		log.Printf("story: node %s is unreachable from the start", id)
	}

	return graph
}

// setupVoice wires the voice monitor to the configured transcript pipe.
// Returns nil when voice is not configured or the pipe cannot be opened;
// the game runs fine without it.
func setupVoice(cfg config.Config, paused *atomic.Bool) *voice.Monitor {
	if cfg.Voice.TranscriptPipe == "" {
		return nil
	}

	f, err := os.Open(cfg.Voice.TranscriptPipe)
	if err != nil {
		log.Printf("voice: open transcript pipe: %v", err)
		return nil
	}

	m := voice.NewMonitor(voice.NewLineRecognizer(f), voice.Config{
		Keyword:           cfg.Voice.Keyword,
		MaxRestarts:       cfg.Voice.MaxRestarts,
		RestartBackoff:    cfg.Voice.RestartBackoff(),
		HeartbeatInterval: cfg.Voice.HeartbeatInterval(),
		StallThreshold:    cfg.Voice.StallThreshold(),
	}, paused)

	if err := m.Start(); err != nil {
		log.Printf("voice: %v", err)
	}
	return m
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	backend := flag.String("renderer", "tui", "renderer backend: tui or window")
	storyPath := flag.String("story", "", "path to a TOML story file (default: built-in story)")
	seconds := flag.Int("seconds", 0, "override the per-decision time limit in seconds")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *seconds > 0 {
		cfg.ChoiceSeconds = *seconds
	}

	windowed := *backend == "window" || *backend == "ebiten"
	setupLogging(&cfg, windowed)
	initGettext()

	graph := loadStory(*storyPath)

	var r renderer.Renderer
	if windowed {
		er := ebitenrenderer.New()
		er.SetFadeDuration(cfg.Transition())
		r = er
	} else {
		r = tui.New()
	}
	renderer.SetRenderer(r)
	renderer.Init()

	var paused atomic.Bool
	monitor := setupVoice(cfg, &paused)
	voiceConfigured := cfg.Voice.TranscriptPipe != ""
	defer func() {
		if monitor != nil {
			monitor.Stop()
		}
	}()

	// The session's single input stream: one pump goroutine funnels every
	// renderer intent into the channel the controller and menus read from.
	intents := make(chan engineinput.Intent, 8)
	go func() {
		for {
			intents <- renderer.GetInput()
		}
	}()

	if err := r.Run(func() {
		runMenus(graph, cfg, monitor, voiceConfigured, intents, &paused)
	}); err != nil {
		log.Fatalf("renderer: %v", err)
	}
}

// runMenus is the application body: the main menu loop dispatching into
// play-throughs until the player quits.
func runMenus(graph *story.Graph, cfg config.Config, monitor *voice.Monitor, voiceConfigured bool, intents chan engineinput.Intent, paused *atomic.Bool) {
	sess := state.NewSession(graph.Title(), cfg.ChoiceSeconds)
	sess.VoiceEnabled = monitor != nil
	if monitor != nil {
		sess.VoiceState = monitor.State()
	} else if voiceConfigured {
		// Configured but unavailable: say so once, then carry on without.
		renderer.ShowNotice("Voice control is unavailable; playing without it.")
	}

	countdown := timer.New()
	next := func() engineinput.Intent { return <-intents }

	// A nil *Monitor must stay a nil interface for the controller.
	var vc play.VoiceControl
	if monitor != nil {
		vc = monitor
	}

	for {
		action := menu.RunMainMenu(sess, graph.Title(), monitor != nil, next)
		switch action {
		case menu.MainMenuActionBegin:
			c := play.New(graph, cfg, sess, countdown, vc, intents, paused)
			if c.Run() == play.ResultQuit {
				return
			}

		case menu.MainMenuActionReconnectVoice:
			monitor.Rearm()
			sess.VoiceState = monitor.State()

		case menu.MainMenuActionQuit:
			return
		}
	}
}
