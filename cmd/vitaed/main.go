package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/mahlerhutter/extensiovitae/internal/audit"
	"github.com/mahlerhutter/extensiovitae/internal/bridge"
	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
	"github.com/mahlerhutter/extensiovitae/internal/notify"
	"github.com/mahlerhutter/extensiovitae/internal/sense"
	"github.com/mahlerhutter/extensiovitae/internal/settings"
	"github.com/mahlerhutter/extensiovitae/internal/task"
)

func main() {
	log.Println("vitaed - context-aware protocol adaptation daemon")
	log.Println("=================================================")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}
	os.MkdirAll(statePath, 0o755)

	// Mode registry (built-ins + optional YAML overlays)
	registry, err := mode.NewRegistryWithOverlays(statePath + "/modes")
	if err != nil {
		log.Fatalf("Invalid mode catalog: %v", err)
	}

	// Durable mode state
	store, err := mode.OpenSQLiteStore(statePath)
	if err != nil {
		log.Fatalf("Failed to open mode store: %v", err)
	}
	defer store.Close()

	controller := mode.NewController(registry, store)

	// User-owned stores
	settingsStore := settings.NewStore(statePath)
	if err := settingsStore.Load(); err != nil {
		log.Printf("Warning: failed to load settings: %v", err)
	}
	taskStore := task.NewStore(statePath)
	if err := taskStore.Load(); err != nil {
		log.Printf("Warning: failed to load tasks: %v", err)
	}
	if err := taskStore.Save(); err != nil {
		log.Printf("Warning: failed to persist tasks: %v", err)
	}

	auditLog := audit.New(statePath)
	outbox := notify.NewOutbox(statePath)
	if err := outbox.Load(); err != nil {
		log.Printf("Warning: failed to load notification outbox: %v", err)
	}

	// Notification delivery: Discord when configured, the log otherwise
	var stopEffector func()
	token := os.Getenv("DISCORD_TOKEN")
	channel := os.Getenv("DISCORD_CHANNEL_ID")
	if token != "" && channel != "" {
		effector, err := notify.NewDiscordEffector(token, channel, outbox)
		if err != nil {
			log.Fatalf("Failed to create Discord effector: %v", err)
		}
		effector.Start()
		stopEffector = effector.Stop
	} else {
		effector := notify.NewLogEffector(outbox)
		effector.Start()
		stopEffector = effector.Stop
	}

	// Calendar feeds from ICS_URLS (comma-separated)
	var sources []calendar.Source
	for i, raw := range strings.Split(os.Getenv("ICS_URLS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		sources = append(sources, calendar.Source{ID: fmt.Sprintf("ics-%d", i), URL: raw})
	}
	if len(sources) == 0 {
		log.Println("[config] No ICS_URLS configured; running without calendar sync")
	}

	b := bridge.New(controller, registry, settingsStore, outbox, auditLog)
	fetcher := calendar.NewFetcher(statePath + "/ics-cache")
	calSense := sense.New(sense.NewICSSource(fetcher, sources), b)

	runCycle := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := calSense.RunCycle(ctx); err != nil {
			log.Printf("[main] Sync cycle failed: %v", err)
			auditLog.Error("sync_cycle", err)
		}
		logPlan(controller, taskStore)
	}

	// Schedule cycles from settings; run one immediately
	scheduler := cron.New()
	if len(sources) > 0 {
		every := fmt.Sprintf("@every %dh", settingsStore.Get().SyncFrequencyHours)
		if _, err := scheduler.AddFunc(every, runCycle); err != nil {
			log.Fatalf("Failed to schedule sync: %v", err)
		}
		scheduler.Start()
		go runCycle()
	}

	snap := controller.Snapshot()
	log.Printf("[main] Active mode: %s %s", snap.Config.Icon, snap.Config.Name)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")
	ctx := scheduler.Stop()
	<-ctx.Done()
	stopEffector()
	log.Println("[main] Goodbye")
}

// logPlan prints today's adapted task plan
func logPlan(controller *mode.Controller, taskStore *task.Store) {
	cfg := controller.CurrentConfig()
	views := task.Apply(cfg.TaskMods, taskStore.Open())

	shown := 0
	for _, v := range views {
		if !v.Show || v.Suppressed {
			continue
		}
		shown++
		marker := " "
		if v.Emphasized {
			marker = "*"
		}
		log.Printf("[plan] %s %s (%s)", marker, v.Task.Title, v.Task.Pillar)
	}
	log.Printf("[plan] %d of %d tasks visible under %s mode", shown, len(views), cfg.Name)
}
