package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Ahlyab/flood-prediction/internal/config"
	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

// execute runs the root command with args and returns its output. Flag
// variables are reset first because the command tree is package state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvListen, "")

	configPath, serviceURL, logLevel, policyName = "", "", "", ""
	assignments, outputFormat, forceInit = nil, "text", false

	if !containsFlag(args, "--config") {
		args = append(args, "--config", filepath.Join(t.TempDir(), "config.yaml"))
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

// fakeService answers /predict with probability and records the bodies
type fakeService struct {
	probability float64
	status      int

	mu     sync.Mutex
	bodies []indicators.Payload
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var p indicators.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("service received invalid payload: %v", err)
			http.Error(w, "bad payload", http.StatusUnprocessableEntity)
			return
		}
		f.mu.Lock()
		f.bodies = append(f.bodies, p)
		f.mu.Unlock()

		if f.status != 0 {
			http.Error(w, `{"detail":"model not loaded"}`, f.status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"PredictedFloodProbability": f.probability})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Welcome to the Flood Prediction API"})
	})
	return mux
}

func (f *fakeService) start(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)
	return ts.URL
}

func (f *fakeService) last(t *testing.T) indicators.Payload {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		t.Fatal("service received no request")
	}
	return f.bodies[len(f.bodies)-1]
}

func TestPredict_Text(t *testing.T) {
	svc := &fakeService{probability: 42.567}
	url := svc.start(t)

	out, err := execute(t, "predict", "--url", url, "--set", "Urbanization=5", "--set", "Landslides=0.5")
	if err != nil {
		t.Fatalf("predict error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Predicted Flood Probability: 42.57%") {
		t.Errorf("output missing result:\n%s", out)
	}

	body := svc.last(t)
	if v, _ := body.Get("Urbanization"); v != 5 {
		t.Errorf("sent Urbanization = %v, want 5", v)
	}
	if v, _ := body.Get("Landslides"); v != 0.5 {
		t.Errorf("sent Landslides = %v, want 0.5", v)
	}
	if v, _ := body.Get("MonsoonIntensity"); v != 2.5 {
		t.Errorf("sent MonsoonIntensity = %v, want default 2.5", v)
	}
}

func TestPredict_JSON(t *testing.T) {
	svc := &fakeService{probability: 0}
	url := svc.start(t)

	out, err := execute(t, "predict", "--url", url, "--format", "json")
	if err != nil {
		t.Fatalf("predict error = %v\n%s", err, out)
	}

	var got predictOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.State.Phase != submission.PhaseSucceeded || got.Result != "0.00%" {
		t.Errorf("state = %v result = %q, want succeeded 0.00%%", got.State.Phase, got.Result)
	}
	if got.Service != url+"/predict" {
		t.Errorf("service = %q, want %s/predict", got.Service, url)
	}
	if len(got.Payload) != indicators.Count {
		t.Errorf("payload has %d entries, want %d", len(got.Payload), indicators.Count)
	}
}

func TestPredict_ServiceError(t *testing.T) {
	svc := &fakeService{status: http.StatusInternalServerError}
	url := svc.start(t)

	out, err := execute(t, "predict", "--url", url)
	if !errors.Is(err, errReported) {
		t.Fatalf("predict error = %v, want errReported", err)
	}
	if !strings.Contains(out, submission.FailureMessage) {
		t.Errorf("output missing failure message:\n%s", out)
	}
	if strings.Contains(out, "Predicted Flood Probability") {
		t.Errorf("failure output must not show a result:\n%s", out)
	}
}

func TestPredict_NonNumericNeverSent(t *testing.T) {
	svc := &fakeService{probability: 10}
	url := svc.start(t)

	out, err := execute(t, "predict", "--url", url, "--set", "Siltation=lots")
	if !errors.Is(err, errReported) {
		t.Fatalf("predict error = %v, want errReported", err)
	}
	if !strings.Contains(out, submission.FailureMessage) {
		t.Errorf("output missing failure message:\n%s", out)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.bodies) != 0 {
		t.Error("a non-numeric form must not reach the service")
	}
}

func TestPredict_BadAssignment(t *testing.T) {
	if _, err := execute(t, "predict", "--set", "Rainfall=3"); err == nil {
		t.Error("unknown indicator should be rejected")
	}
	if _, err := execute(t, "predict", "--format", "xml"); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestPredict_ConfigDefaults(t *testing.T) {
	svc := &fakeService{probability: 50}
	url := svc.start(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Service.BaseURL = url
	cfg.Defaults = map[string]float64{"Watersheds": 9}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	if out, err := execute(t, "predict", "--config", path); err != nil {
		t.Fatalf("predict error = %v\n%s", err, out)
	}
	if v, _ := svc.last(t).Get("Watersheds"); v != 9 {
		t.Errorf("sent Watersheds = %v, want configured 9", v)
	}
}

func TestFields(t *testing.T) {
	out, err := execute(t, "fields")
	if err != nil {
		t.Fatalf("fields error = %v", err)
	}

	last := -1
	for _, name := range indicators.Names() {
		i := strings.Index(out, name)
		if i < 0 {
			t.Fatalf("output missing %s:\n%s", name, out)
		}
		if i < last {
			t.Errorf("%s listed out of order", name)
		}
		last = i
	}
}

func TestFields_JSON(t *testing.T) {
	out, err := execute(t, "fields", "--format", "json")
	if err != nil {
		t.Fatalf("fields error = %v", err)
	}
	var p indicators.Payload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("output is not a payload: %v\n%s", err, out)
	}
	if !p.Form().Equal(indicators.Defaults()) {
		t.Error("fields --format json should list the defaults")
	}
}

func TestPing(t *testing.T) {
	svc := &fakeService{}
	url := svc.start(t)

	out, err := execute(t, "ping", "--url", url)
	if err != nil {
		t.Fatalf("ping error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Welcome to the Flood Prediction API") {
		t.Errorf("output missing welcome message:\n%s", out)
	}
}

func TestConfigInitShowPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "path", "--config", path)
	if err != nil || strings.TrimSpace(out) != path {
		t.Errorf("config path = (%q, %v), want %s", out, err, path)
	}

	if _, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := execute(t, "config", "init", "--config", path); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}
	if _, err := execute(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, err = execute(t, "config", "show", "--config", path, "--url", "http://10.1.2.3:9000")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "base_url: http://10.1.2.3:9000") {
		t.Errorf("config show should reflect --url:\n%s", out)
	}
}

func TestInvalidPolicyFlag(t *testing.T) {
	_, err := execute(t, "fields", "--policy", "first-wins")
	if err == nil || !strings.Contains(err.Error(), "submission.policy") {
		t.Errorf("error = %v, want policy validation failure", err)
	}
}

func TestWizard_RequiresTerminal(t *testing.T) {
	_, err := execute(t, "wizard")
	if err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Errorf("wizard error = %v, want terminal requirement", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "flood-predict ") {
		t.Errorf("version output = %q", out)
	}
}
