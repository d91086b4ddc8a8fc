// vitae-mcp exposes the protocol adaptation engine to AI assistants over
// stdio MCP: query mode state, switch modes, classify events on demand,
// and read the adapted daily plan.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mahlerhutter/extensiovitae/internal/audit"
	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/classify"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
	"github.com/mahlerhutter/extensiovitae/internal/settings"
	"github.com/mahlerhutter/extensiovitae/internal/task"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Log to stderr so stdout stays clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[vitae-mcp] ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	registry, err := mode.NewRegistryWithOverlays(statePath + "/modes")
	if err != nil {
		log.Fatalf("Invalid mode catalog: %v", err)
	}

	store, err := mode.OpenSQLiteStore(statePath)
	if err != nil {
		log.Fatalf("Failed to open mode store: %v", err)
	}
	defer store.Close()

	controller := mode.NewController(registry, store)

	settingsStore := settings.NewStore(statePath)
	if err := settingsStore.Load(); err != nil {
		log.Printf("Warning: failed to load settings: %v", err)
	}
	taskStore := task.NewStore(statePath)
	if err := taskStore.Load(); err != nil {
		log.Printf("Warning: failed to load tasks: %v", err)
	}

	s := server.NewMCPServer(
		"vitae",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registerModeTools(s, controller, registry, audit.New(statePath))
	registerClassifyTool(s)
	registerPlanTool(s, controller, taskStore)
	registerSettingsTool(s, settingsStore)

	log.Println("Serving on stdio")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func registerModeTools(s *server.MCPServer, controller *mode.Controller, registry *mode.Registry, auditLog *audit.Log) {
	s.AddTool(mcp.NewTool("mode_status",
		mcp.WithDescription("Get the currently active wellness mode, how long it has been active, and the recent transition history."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(controller.Snapshot())
	})

	s.AddTool(mcp.NewTool("activate_mode",
		mcp.WithDescription("Activate a wellness mode (travel, sick, detox, deep_work, or normal). Re-activating the current mode restarts its clock."),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Mode id to activate."),
			mcp.Enum("normal", "travel", "sick", "detox", "deep_work"),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := mode.ParseID(req.GetString("mode", ""))
		if !ok {
			return mcp.NewToolResultError("'mode' must be one of: normal, travel, sick, detox, deep_work"), nil
		}
		from := controller.Current()
		controller.Activate(id, map[string]any{"trigger": "manual_mcp"})
		if err := auditLog.ModeChange(string(from), string(id), "manual_mcp"); err != nil {
			log.Printf("Warning: audit write failed: %v", err)
		}
		cfg := registry.Config(id)
		return mcp.NewToolResultText(fmt.Sprintf("%s %s mode activated. Focus: %s", cfg.Icon, cfg.Name, cfg.Focus)), nil
	})

	s.AddTool(mcp.NewTool("deactivate_mode",
		mcp.WithDescription("Return to the normal protocol."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from := controller.Current()
		controller.Deactivate()
		if err := auditLog.ModeChange(string(from), string(mode.Normal), "manual_deactivation"); err != nil {
			log.Printf("Warning: audit write failed: %v", err)
		}
		return mcp.NewToolResultText("Back to normal mode."), nil
	})
}

func registerClassifyTool(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("classify_events",
		mcp.WithDescription("Run the calendar heuristics over a list of events and return the resulting detections (flights, focus blocks, busy weeks, health appointments). Events are a JSON array of {id, title, description, location, start, end, attendees: [{email}], all_day}."),
		mcp.WithString("events",
			mcp.Required(),
			mcp.Description("JSON array of calendar events to classify."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var events []calendar.Event
		if err := json.Unmarshal([]byte(req.GetString("events", "")), &events); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'events' is not a valid JSON event array: %v", err)), nil
		}

		var detections []*classify.Detection
		for _, ev := range events {
			detections = append(detections, classify.DetectAll(ev)...)
		}
		if d := classify.DetectBusyWeek(events, time.Now()); d != nil {
			detections = append(detections, d)
		}
		if len(detections) == 0 {
			return mcp.NewToolResultText("No detections."), nil
		}
		return jsonResult(detections)
	})
}

func registerPlanTool(s *server.MCPServer, controller *mode.Controller, taskStore *task.Store) {
	s.AddTool(mcp.NewTool("today_plan",
		mcp.WithDescription("Get the daily protocol task list as adapted by the active mode (show/emphasize/suppress decisions included)."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := controller.CurrentConfig()
		return jsonResult(map[string]any{
			"mode":  cfg.ID,
			"tasks": task.Apply(cfg.TaskMods, taskStore.Open()),
		})
	})
}

func registerSettingsTool(s *server.MCPServer, store *settings.Store) {
	s.AddTool(mcp.NewTool("update_settings",
		mcp.WithDescription("Update auto-activation preferences. Omitted fields are left unchanged."),
		mcp.WithBoolean("auto_activate_travel", mcp.Description("Switch to travel mode automatically when a flight is detected.")),
		mcp.WithBoolean("auto_activate_deep_work", mcp.Description("Switch to deep-work mode automatically when a long focus block is detected.")),
		mcp.WithBoolean("auto_activate_sick", mcp.Description("Reserved for future sick-day detection; stored but not yet acted on.")),
		mcp.WithBoolean("alert_busy_weeks", mcp.Description("Alert when a packed meeting week is detected.")),
		mcp.WithNumber("sync_frequency_hours", mcp.Description("How often to sync the calendar, in hours (minimum 1).")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		err := store.Update(func(cur *settings.Settings) {
			cur.AutoActivateTravel = req.GetBool("auto_activate_travel", cur.AutoActivateTravel)
			cur.AutoActivateDeepWork = req.GetBool("auto_activate_deep_work", cur.AutoActivateDeepWork)
			cur.AutoActivateSick = req.GetBool("auto_activate_sick", cur.AutoActivateSick)
			cur.AlertBusyWeeks = req.GetBool("alert_busy_weeks", cur.AlertBusyWeeks)
			cur.SyncFrequencyHours = req.GetInt("sync_frequency_hours", cur.SyncFrequencyHours)
		})
		if err != nil {
			return nil, fmt.Errorf("saving settings: %w", err)
		}
		return jsonResult(store.Get())
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
