package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/roomfit/align"
)

// App encapsulates the application state and dependencies
type App struct {
	Config       *align.Config
	Collector    *align.Collector
	StateTracker *align.StateTracker
	MQTTClient   *align.MQTTClient
	Publisher    *align.Publisher

	// CLI Flags (effectively dependencies)
	ConfigFile string
	OutputFile string
	Format     string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		StateTracker: align.NewStateTracker(),
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.OutputFile = opts.OutputFile
	a.Format = opts.Format
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// RunRender loads the configuration and writes the model-space floor plan to
// the output file, then exits. No alignment is involved; this is for checking
// that the reference geometry table describes the room you think it does.
func (a *App) RunRender() {
	config, err := align.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	format := a.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(a.OutputFile), ".")
	}

	renderer := align.NewPlanRenderer(config.Model, nil)
	renderer.Placements = config.Placements

	f, err := os.Create(a.OutputFile)
	if err != nil {
		log.Fatalf("Error creating output file: %v", err)
	}
	defer f.Close()

	switch format {
	case "svg":
		err = renderer.RenderToSVG(f)
	case "png":
		err = renderer.RenderToPNG(f)
	default:
		log.Fatalf("Unknown render format %q (want svg or png)", format)
	}
	if err != nil {
		log.Fatalf("Error rendering floor plan: %v", err)
	}

	fmt.Printf("Floor plan written to %s\n", a.OutputFile)
}

// RunService runs the alignment service: MQTT ingestion, the session timer,
// and the HTTP server, as enabled by flags.
func (a *App) RunService() {
	config, err := align.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	a.Config = config

	collector, err := align.NewCollector(config.Alignment, config.Model, a.onAligned)
	if err != nil {
		log.Fatalf("Error creating collector: %v", err)
	}
	a.Collector = collector

	if a.MqttMode {
		mqttClient, err := align.InitMQTT(config, a.handlePlane, a.handleSession)
		if err != nil {
			log.Fatalf("Error initializing MQTT: %v", err)
		}
		a.MQTTClient = mqttClient

		if mqttClient != nil {
			a.Publisher = align.NewPublisher(mqttClient.GetClient(), config.MQTT.TopicPrefix)
			defer mqttClient.Disconnect()
		}
	}

	// Session timer. One-second granularity is plenty for a timeout measured
	// in tens of seconds.
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			collector.OnTimerTick(1.0)
		}
	}()

	if a.HttpMode {
		handler := newHTTPServer(a.StateTracker, collector, config)
		addr := fmt.Sprintf(":%d", a.HttpPort)
		go func() {
			log.Printf("[HTTP] listening on %s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	fmt.Println("roomfit service running")
	fmt.Printf("  Reference walls:   %d\n", len(config.Model.Walls))
	fmt.Printf("  Device placements: %d\n", len(config.Placements))
	if a.MqttMode {
		fmt.Printf("  MQTT topics:       %s, %s\n", config.PlaneTopic(), config.SessionTopic())
	}
	if a.HttpMode {
		fmt.Printf("  HTTP port:         %d\n", a.HttpPort)
	}
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
}

// onAligned runs when the collector commits an alignment. It runs on the
// collector's lock, so it only touches the tracker and the publisher.
func (a *App) onAligned(result align.AlignmentResult, height align.HeightReport, matches []align.WallMatch) {
	a.StateTracker.SetAligned(result, height)

	if a.Publisher == nil {
		return
	}
	if err := a.Publisher.PublishPose(result); err != nil {
		log.Printf("[PUB] pose publish failed: %v", err)
	}
	if len(a.Config.Placements) > 0 {
		world := align.MapPlacements(a.Config.Placements, result)
		if err := a.Publisher.PublishPlacements(world); err != nil {
			log.Printf("[PUB] placements publish failed: %v", err)
		}
	}
}

// handlePlane classifies an incoming plane event and feeds the collector.
// Undecodable or degenerate planes are skipped; the session keeps running.
func (a *App) handlePlane(raw []byte, event *align.PlaneEvent, err error) {
	if err != nil {
		return // transport already logged it
	}

	plane, cerr := align.ClassifyPlane(event, a.Config.Alignment.CeilingYThresholdM)
	if cerr != nil {
		if !errors.Is(cerr, align.ErrIgnoredPlane) {
			log.Printf("[ALIGN] dropping plane: %v", cerr)
		}
		return
	}

	a.Collector.OnPlaneDetected(plane)
	a.StateTracker.RecordPlane(a.Collector.Counts())
}

// handleSession maps session lifecycle signals onto the collector.
func (a *App) handleSession(signal string) {
	switch signal {
	case align.SessionSignalStart:
		a.Collector.OnSessionStart()
		a.StateTracker.SetSessionState(align.StateCollecting)
	case align.SessionSignalEnd:
		a.Collector.OnSessionEnd()
		a.StateTracker.SetSessionState(align.StateIdle)
	default:
		log.Printf("[ALIGN] ignoring unknown session signal %q", signal)
	}
}
