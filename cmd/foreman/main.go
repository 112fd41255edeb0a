package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foremanhq/foreman/internal/agents"
	"github.com/foremanhq/foreman/internal/bus"
	"github.com/foremanhq/foreman/internal/calendar"
	"github.com/foremanhq/foreman/internal/channel"
	"github.com/foremanhq/foreman/internal/channel/discord"
	"github.com/foremanhq/foreman/internal/channel/telegram"
	"github.com/foremanhq/foreman/internal/channel/webchat"
	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/llm"
	"github.com/foremanhq/foreman/internal/logging"
	"github.com/foremanhq/foreman/internal/metrics"
	"github.com/foremanhq/foreman/internal/orchestrator"
	"github.com/foremanhq/foreman/internal/resolve"
	"github.com/foremanhq/foreman/internal/router"
	"github.com/foremanhq/foreman/internal/scheduler"
	"github.com/foremanhq/foreman/internal/server"
	"github.com/foremanhq/foreman/internal/store"
	"github.com/foremanhq/foreman/internal/transcribe"
	"github.com/foremanhq/foreman/internal/tui"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	console := flag.Bool("console", false, "run the local chat console instead of channel adapters")
	flag.Parse()

	logger := logging.WithComponent("main")
	logger.Info("starting foreman", "version", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	llmClient, err := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BaseDelay:   cfg.LLM.BaseDelay,
			Jitter:      true,
		},
	})
	if err != nil {
		logger.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eventBus *bus.Bus
	if cfg.Redis.Addr != "" {
		eventBus, err = bus.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, logging.WithComponent("bus"))
		if err != nil {
			logger.Warn("event bus unavailable, continuing without it", "error", err)
			eventBus = nil
		}
	}

	var calClient *calendar.Client
	if cfg.Calendar.CredentialsFile != "" && cfg.Calendar.CalendarID != "" {
		calClient, err = calendar.NewClientFromCredentialsFile(cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID)
		if err != nil {
			logger.Warn("calendar unavailable, continuing without it", "error", err)
			calClient = nil
		}
	}

	transcriber := transcribe.New(cfg.Transcribe.APIKey, cfg.Transcribe.BaseURL)
	extractor := agents.NewTranscriptAgent(llmClient, cfg.LLM.Model, logging.WithComponent("transcript"))

	tg := telegram.New(cfg.Telegram.Token, cfg.Telegram.AllowedUserIDs, logging.WithComponent("telegram"))
	dc := discord.New(cfg.Discord.Token, logging.WithComponent("discord"))
	wc := webchat.New(cfg.Server.Port+1, logging.WithComponent("webchat"))

	op := &operator{logger: logging.WithComponent("operator")}
	switch {
	case tg.Enabled() && len(cfg.Telegram.AllowedUserIDs) > 0:
		op.adapter = tg
		op.userID = strconv.FormatInt(cfg.Telegram.AllowedUserIDs[0], 10)
	case dc.Enabled() && cfg.Discord.ChannelID != "":
		op.adapter = dc
		op.userID = cfg.Discord.ChannelID
	}

	var agentCal agents.EventSource
	if calClient != nil {
		agentCal = calClient
	}

	specialists := map[router.Specialist]orchestrator.Specialist{
		router.SpecialistTask:      agents.NewTaskAgent(st, logging.WithComponent("task")),
		router.SpecialistProject:   agents.NewProjectAgent(st, logging.WithComponent("project")),
		router.SpecialistKnowledge: agents.NewKnowledgeAgent(st, llmClient, cfg.LLM.Model, logging.WithComponent("knowledge")),
		router.SpecialistSchedule:  agents.NewScheduleAgent(st, agentCal, logging.WithComponent("schedule")),
	}

	var orchPub orchestrator.Publisher
	if eventBus != nil {
		orchPub = eventBus
	}
	orch := orchestrator.New(
		st,
		router.New(llmClient, cfg.LLM.Model, logging.WithComponent("router")),
		resolve.New(st),
		specialists,
		agents.NewGenerator(llmClient, cfg.LLM.Model, logging.WithComponent("responder")),
		op,
		orchPub,
		logging.WithComponent("orchestrator"),
	)

	var schedCal scheduler.EventSource
	if calClient != nil {
		schedCal = calClient
	}
	var schedPub scheduler.Publisher
	if eventBus != nil {
		schedPub = eventBus
	}
	sched, err := scheduler.New(st, op, schedCal, schedPub, cfg.Scheduler.BriefCron, cfg.Scheduler.ReminderCron, logging.WithComponent("scheduler"))
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	channelStatus := map[string]bool{}
	for _, a := range []channel.Adapter{tg, dc, wc} {
		channelStatus[a.Name()] = a.Enabled()
	}

	srv := server.New(cfg, st, transcriber, extractor, channelStatus, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()

	if *console {
		runConsole(ctx, cfg, orch, eventBus, channelStatus, logger)
		shutdownServer(srv, logger)
		return
	}

	adapters := []channel.Adapter{}
	for _, a := range []channel.Adapter{tg, dc, wc} {
		if !a.Enabled() {
			continue
		}
		if err := a.Start(ctx); err != nil {
			logger.Error("adapter start failed", "adapter", a.Name(), "error", err)
			continue
		}
		logger.Info("adapter started", "adapter", a.Name())
		adapters = append(adapters, a)
		go pump(ctx, a, orch, st, transcriber, logging.WithComponent(a.Name()))
	}

	sched.Start()
	logger.Info("scheduler started", "brief", cfg.Scheduler.BriefCron, "reminders", cfg.Scheduler.ReminderCron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	for _, a := range adapters {
		if err := a.Stop(); err != nil {
			logger.Error("adapter stop failed", "adapter", a.Name(), "error", err)
		}
	}
	sched.Stop()
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error("event bus close failed", "error", err)
		}
	}
	shutdownServer(srv, logger)
	logger.Info("shutdown complete")
}

func runConsole(ctx context.Context, cfg *config.Config, orch *orchestrator.Orchestrator, eventBus *bus.Bus, channelStatus map[string]bool, logger *slog.Logger) {
	var eventCh <-chan bus.Event
	busUp := false
	if eventBus != nil {
		eventCh = eventBus.Subscribe(ctx)
		busUp = eventBus.IsConnected(ctx)
	}

	status := tui.NewStatus(cfg.LLM.Model, cfg.Database.Path, channelStatus, busUp)
	app := tui.NewApp(orch, status, eventCh)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("console error", "error", err)
	}
}

func shutdownServer(srv *server.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

// pump drains one adapter's inbound stream. Text goes straight through a
// turn; voice notes get transcribed first and the transcript runs as a
// normal turn, prefixed with what the assistant heard.
func pump(ctx context.Context, a channel.Adapter, orch *orchestrator.Orchestrator, st *store.Store, tr *transcribe.Client, logger *slog.Logger) {
	for msg := range a.Incoming() {
		var reply string
		if msg.Kind == channel.KindVoice {
			reply = handleVoice(ctx, msg, a.Name(), st, tr, orch, logger)
		} else {
			reply = orch.HandleMessage(ctx, msg.Content)
		}
		if err := a.Send(msg.UserID, &channel.Response{Content: reply}); err != nil {
			logger.Error("reply send failed", "error", err, "user", msg.UserID)
		}
	}
}

func handleVoice(ctx context.Context, msg *channel.Message, source string, st *store.Store, tr *transcribe.Client, orch *orchestrator.Orchestrator, logger *slog.Logger) string {
	if !tr.Enabled() {
		return "Voice notes aren't set up yet. Can you type that instead?"
	}

	text, err := tr.TranscribeURL(ctx, msg.VoiceURL)
	if err != nil {
		logger.Error("voice transcription failed", "error", err)
		return "I couldn't make out that voice note. Mind typing it?"
	}

	// Keep the raw transcript so the recorder's processing endpoint can
	// run fact extraction over it later.
	if _, err := st.SaveTranscript(ctx, text, msg.DurationSeconds, source); err != nil {
		logger.Error("transcript save failed", "error", err)
	}
	metrics.VoiceNotesTotal.Inc()

	reply := orch.HandleMessage(ctx, text)
	return fmt.Sprintf("Heard: %q\n\n%s", text, reply)
}

// operator routes out-of-band traffic (briefs, reminders, failure notices)
// to the person running the assistant. With no channel configured it
// degrades to the log.
type operator struct {
	adapter channel.Adapter
	userID  string
	logger  *slog.Logger
}

func (o *operator) SendToOperator(ctx context.Context, text string) error {
	if o.adapter == nil {
		o.logger.Info("operator message", "text", text)
		return nil
	}
	return o.adapter.Send(o.userID, &channel.Response{Content: text})
}

func (o *operator) NotifyOperator(ctx context.Context, message string) {
	if err := o.SendToOperator(ctx, message); err != nil {
		o.logger.Error("operator notify failed", "error", err)
	}
}
