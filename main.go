package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries the parsed CLI flags into the application.
type AppOptions struct {
	ConfigFile string
	OutputFile string
	Format     string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
}

// appRunner is the surface run dispatches to. Tests substitute a mock.
type appRunner interface {
	ApplyOptions(opts AppOptions)
	RunRender()
	RunService()
}

func run(args []string, out io.Writer, app appRunner) error {
	fs := flag.NewFlagSet("roomfit", flag.ContinueOnError)
	fs.SetOutput(out)

	configFile := fs.String("config", "config.yaml", "Path to configuration file")
	renderOnly := fs.Bool("render", false, "Render the floor plan and exit")
	outputFile := fs.String("output", "floorplan.svg", "Output file for --render mode")
	format := fs.String("format", "", "Render format: svg or png (default: from output extension)")
	mqttMode := fs.Bool("mqtt", false, "Subscribe to the live plane-detection stream over MQTT")
	httpMode := fs.Bool("http", false, "Enable the HTTP status and floor-plan server")
	httpPort := fs.Int("http-port", 8080, "HTTP server port (default 8080)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "roomfit version: %s\n", Version)

	app.ApplyOptions(AppOptions{
		ConfigFile: *configFile,
		OutputFile: *outputFile,
		Format:     *format,
		HttpPort:   *httpPort,
		MqttMode:   *mqttMode,
		HttpMode:   *httpMode,
	})

	if *renderOnly {
		app.RunRender()
		return nil
	}

	if *mqttMode || *httpMode {
		app.RunService()
		return nil
	}

	fmt.Fprintln(out, "roomfit service starting...")
	fmt.Fprintln(out, "Use --mqtt to consume the live plane-detection stream")
	fmt.Fprintln(out, "Use --http to serve alignment state and floor-plan images")
	fmt.Fprintln(out, "Use --mqtt --http to run both together")
	fmt.Fprintln(out, "Use --render to write the floor plan to a file and exit")
	fmt.Fprintln(out, "\nConfiguration:")
	fmt.Fprintln(out, "  config.yaml - MQTT settings, alignment tuning, reference model, placements")
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		os.Exit(2)
	}
}
