package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ahlyab/flood-prediction/internal/discovery"
	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/predict"
	"github.com/Ahlyab/flood-prediction/internal/submission"
	"github.com/Ahlyab/flood-prediction/internal/ui"
	"github.com/Ahlyab/flood-prediction/internal/web"
	"github.com/Ahlyab/flood-prediction/internal/wizard/tui"
)

// Command flags
var (
	discover     bool
	listenAddr   string
	advertise    bool
	assignments  []string
	outputFormat string
	scanTimeout  time.Duration
)

// errReported is returned after a command already printed its failure box
var errReported = errors.New("command failed")

func init() {
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "Pick the prediction service from an mDNS scan")

	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(scanCmd)
}

// signalContext is canceled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// wizardCmd launches the interactive terminal form
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive terminal form",
	Long: `Launch the interactive terminal form.

Every indicator starts at its default value. Move between fields with the
arrow keys or tab, type a value, and press enter to ask the service for a
prediction. The result or the error replaces the previous one; r restores
the defaults.`,
	Example: `  # Launch the form (wizard is default):
  flood-predict

  # Use a service on another host
  flood-predict wizard --url http://10.0.0.5:8000

  # Pick a service announced on the local network
  flood-predict wizard --discover`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	if !isInteractive(cmd.OutOrStdout()) {
		return errors.New("the interactive form needs a terminal; use 'flood-predict predict' or 'flood-predict serve' instead")
	}

	cfg, err := loadSettings(cmd, logToFile)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	opts := tui.Options{
		Discover: discover,
		Scanner:  newScanner(cfg),
		Connect: func(svc *discovery.Service) (*submission.Controller, string) {
			c := clientForService(cfg, svc)
			logging.LogServiceDiscovered(svc.Instance, c.BaseURL)
			return newController(cfg, c), c.PredictURL()
		},
	}
	if !discover {
		opts.Controller = newController(cfg, client)
		opts.Endpoint = client.PredictURL()
	}

	if err := tui.Run(opts); err != nil {
		return fmt.Errorf("terminal form error: %w", err)
	}
	return nil
}

// serveCmd runs the browser form
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form to browsers",
	Long: `Serve the prediction form over HTTP.

Each browser session gets its own form and submission state. The page works
as a plain HTML form; with JavaScript enabled it submits in the background
and follows the result over a websocket.`,
	Example: `  # Serve on the configured address (default 127.0.0.1:8080)
  flood-predict serve

  # Serve on all interfaces and announce the form over mDNS
  flood-predict serve --listen :8080 --advertise`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides web.listen)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the form over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Web.Listen = listenAddr
	}

	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg)
	if discover {
		svc, err := newScanner(cfg).First(ctx, "")
		if err != nil {
			return fmt.Errorf("service discovery failed: %w", err)
		}
		client = clientForService(cfg, svc)
		logging.LogServiceDiscovered(svc.Instance, client.BaseURL)
	}

	instance, _ := os.Hostname()
	server, err := web.New(web.Config{
		Listen:     cfg.Web.Listen,
		SessionTTL: cfg.Web.SessionTTL,
		CertFile:   cfg.Web.CertFile,
		KeyFile:    cfg.Web.KeyFile,
		Endpoint:   client.PredictURL(),
		Advertise:  advertise || cfg.Web.Advertise,
		Instance:   instance,
	}, func() *submission.Controller {
		return newController(cfg, client)
	})
	if err != nil {
		return err
	}

	scheme := "http"
	if cfg.Web.CertFile != "" {
		scheme = "https"
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("FLOOD PREDICTION FORM", "serve",
		ui.Detail{Key: "Listening", Value: scheme + "://" + cfg.Web.Listen},
		ui.Detail{Key: "Service", Value: client.PredictURL()},
		ui.Detail{Key: "Policy", Value: cfg.Policy().String()},
	)

	return server.Run(ctx)
}

// predictCmd submits once and prints the outcome
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Request one prediction and print it",
	Long: `Request one prediction without the interactive form.

The form starts from the defaults (and any defaults from the config file);
each --set replaces one indicator. The exit status is non-zero when the
prediction fails.`,
	Example: `  # Predict with the default form
  flood-predict predict

  # Change two indicators
  flood-predict predict --set MonsoonIntensity=7 --set Urbanization=4.5

  # JSON output for scripting
  flood-predict predict --format json`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringArrayVar(&assignments, "set", nil, "Indicator value as Name=value (repeatable)")
	predictCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")
}

// predictOutput is the JSON shape of a predict run
type predictOutput struct {
	Service string             `json:"service"`
	Form    map[string]string  `json:"form"`
	State   submission.State   `json:"state"`
	Result  string             `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Payload map[string]float64 `json:"payload,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", outputFormat)
	}

	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}

	form := cfg.InitialForm()
	for _, a := range assignments {
		name, value, err := indicators.ParseAssignment(a)
		if err != nil {
			return err
		}
		form = form.SetField(name, value)
	}
	cmd.SilenceUsage = true

	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg)

	// The controller only exposes the generic failure text; keep the cause
	// for the operator.
	var cause error
	controller := newController(cfg, submission.PredictorFunc(
		func(ctx context.Context, payload indicators.Payload) (*predict.Prediction, error) {
			prediction, err := client.Predict(ctx, payload)
			cause = err
			return prediction, err
		}))
	defer controller.Close()

	controller.SetForm(form)
	payload, payloadErr := form.Payload()
	if payloadErr != nil {
		cause = payloadErr
	}

	state, err := controller.Submit(ctx)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		out := predictOutput{
			Service: client.PredictURL(),
			Form:    form.Map(),
			State:   state,
		}
		if payloadErr == nil {
			out.Payload = payload.Map()
		}
		if _, ok := state.Result(); ok {
			out.Result = state.Display()
		}
		if cause != nil {
			out.Error = predict.ShortMessage(cause)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
		if state.Phase == submission.PhaseFailed {
			return errReported
		}
		return nil
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if _, ok := state.Result(); ok {
		p.PrintSuccess("Predicted Flood Probability: "+state.Display(),
			ui.Detail{Key: "Service", Value: client.PredictURL()},
			ui.Detail{Key: "Request ID", Value: state.RequestID},
		)
		return nil
	}

	message, _ := state.ErrorMessage()
	hints := predict.Hints(cause)
	var perr *indicators.ParseError
	if errors.As(cause, &perr) {
		hints = []string{"Every indicator must be a number; run 'flood-predict fields' to see the current form"}
	}
	p.PrintFailure("Prediction failed", message, cause, hints)
	logging.Debug("Prediction failed", zap.String("request_id", state.RequestID), zap.Error(cause))
	return errReported
}

// fieldsCmd lists the indicators
var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the indicators and their initial values",
	Example: `  flood-predict fields
  flood-predict fields --format json`,
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")
}

func runFields(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}
	form := cfg.InitialForm()

	switch outputFormat {
	case "json":
		payload, err := form.Payload()
		if err != nil {
			return err
		}
		// Payload keeps the display order
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case "text":
		details := make([]ui.Detail, 0, form.Len())
		for _, f := range form.Fields() {
			details = append(details, ui.Detail{Key: f.Name, Value: f.Raw})
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintDetails(details)
	default:
		return fmt.Errorf("unknown format %q (expected text or json)", outputFormat)
	}
	return nil
}

// pingCmd checks that the service answers
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the prediction service is reachable",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg)
	p := ui.NewPrinter(cmd.OutOrStdout())

	start := time.Now()
	message, err := client.Ping(ctx)
	if err != nil {
		p.PrintFailure("Service unreachable", predict.ShortMessage(err), err, predict.Hints(err))
		return errReported
	}

	p.PrintSuccess("Service reachable",
		ui.Detail{Key: "URL", Value: client.BaseURL},
		ui.Detail{Key: "Message", Value: message},
		ui.Detail{Key: "Round trip", Value: time.Since(start).Round(time.Millisecond).String()},
	)
	return nil
}

// schemaCmd compares the service's OpenAPI document with the form
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the service's request schema against the form",
	Long: `Fetch the service's OpenAPI document and check that the prediction
operation accepts exactly the twenty numeric indicators this client sends.`,
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg)
	p := ui.NewPrinter(cmd.OutOrStdout())

	doc, err := client.FetchSchema(ctx)
	if err != nil {
		p.PrintFailure("Schema unavailable", predict.ShortMessage(err), err, predict.Hints(err))
		return errReported
	}

	report, err := predict.CheckSchema(doc, client.PredictPath)
	if err != nil {
		p.PrintFailure("Schema check failed", err.Error(), nil, nil)
		return errReported
	}

	if report.OK() {
		details := []ui.Detail{{Key: "Service", Value: report.Title + " " + report.Version}}
		if len(report.NotRequired) > 0 {
			details = append(details, ui.Detail{Key: "Optional", Value: strings.Join(report.NotRequired, ", ")})
		}
		p.PrintSuccess("Schema matches the form", details...)
		return nil
	}

	var details []ui.Detail
	for _, d := range []struct {
		key   string
		names []string
	}{
		{"Missing", report.Missing},
		{"Not numeric", report.NotNumeric},
		{"Unexpected", report.Unexpected},
	} {
		if len(d.names) > 0 {
			details = append(details, ui.Detail{Key: d.key, Value: strings.Join(d.names, ", ")})
		}
	}
	p.PrintWarning(report.Summary(), details...)
	return errReported
}

// scanCmd browses mDNS for prediction services
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the local network for prediction services",
	Long: `Scan for prediction services announced over mDNS/DNS-SD.

Services announce themselves as ` + discovery.ServiceType + `; a TXT record
path=/predict overrides the prediction endpoint.`,
	Example: `  # Scan with the configured timeout (default 5s)
  flood-predict scan

  # Longer scan for slow networks
  flood-predict scan --wait 15s`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "wait", 0, "How long to listen (overrides discovery.timeout)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, logToStderr)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	scanner := newScanner(cfg)
	if scanTimeout > 0 {
		scanner.Timeout = scanTimeout
	}

	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for prediction services (timeout: %s)...\n\n", scanner.Timeout)

	services, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p := ui.NewPrinter(out)
	if len(services) == 0 {
		p.PrintFailure("No services found", "No prediction service answered the scan.", nil, []string{
			"Check that the service announces " + discovery.ServiceType,
			"Multicast must be allowed between this machine and the service",
			"Try a longer --wait, or pass --url to skip discovery",
		})
		return nil
	}

	fmt.Fprintf(out, "Found %d service(s):\n\n", len(services))
	for i, svc := range services {
		fmt.Fprintf(out, "%d. %s\n", i+1, svc.Instance)
		details := []ui.Detail{
			{Key: "Host", Value: svc.Hostname},
			{Key: "URL", Value: svc.BaseURL()},
		}
		if path := svc.PredictPath(); path != "" {
			details = append(details, ui.Detail{Key: "Predict path", Value: path})
		}
		p.PrintDetails(details)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Use 'flood-predict --url <url>' to use a service")
	fmt.Fprintln(out, "Use 'flood-predict --discover' to pick one interactively")
	return nil
}
