// FilePath: internal/simulator/simulator.go
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Generate produces one plausible synthetic submission for a facility.
// Value ranges mirror what field devices report: 20-35°C, 40-80% humidity,
// mostly-Low gas with occasional spikes, random actuator states.
func Generate(rng *rand.Rand, facilityID string) *models.ReadingSubmission {
	temperature := round1(20 + rng.Float64()*15)
	humidity := round1(40 + rng.Float64()*40)

	gas := models.GasLow
	switch roll := rng.Float64(); {
	case roll > 0.8:
		gas = models.GasHigh
	case roll > 0.5:
		gas = models.GasMedium
	}

	return &models.ReadingSubmission{
		FacilityID:         facilityID,
		Temperature:        &temperature,
		Humidity:           &humidity,
		GasStatus:          gas,
		StatusLamp1:        randomSwitch(rng),
		StatusLamp2:        randomSwitch(rng),
		StatusViewer:       randomSwitch(rng),
		StatusWritingTable: randomSwitch(rng),
		StatusOpLamp:       randomSwitch(rng),
	}
}

func randomSwitch(rng *rand.Rand) models.SwitchState {
	if rng.Float64() > 0.5 {
		return models.SwitchOn
	}
	return models.SwitchOff
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

// Harness drives synthetic readings through the public submit endpoint,
// exactly as a field device would. Each harness owns its scheduled tasks;
// independent instances never share state, so tests can run several at once.
type Harness struct {
	client    *http.Client
	submitURL string

	mu    sync.Mutex
	rng   *rand.Rand
	tasks map[string]chan struct{}
	wg    sync.WaitGroup
}

// NewHarness creates a harness posting to baseURL's submit endpoint. A zero
// seed uses the current time.
func NewHarness(baseURL string, timeout time.Duration, seed int64) *Harness {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Harness{
		client:    &http.Client{Timeout: timeout},
		submitURL: baseURL + "/api/v1/monitoring/submit",
		rng:       rand.New(rand.NewSource(seed)),
		tasks:     make(map[string]chan struct{}),
	}
}

// SubmitOnce generates and posts a single reading for the facility.
func (h *Harness) SubmitOnce(ctx context.Context, facilityID string) (*models.Reading, error) {
	h.mu.Lock()
	submission := Generate(h.rng, facilityID)
	h.mu.Unlock()

	body, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, h.submitURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("submit reading: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated {
		responseBody, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return nil, fmt.Errorf("submit rejected with status %d: %s", response.StatusCode, responseBody)
	}

	var envelope struct {
		Status string          `json:"status"`
		Data   *models.Reading `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return envelope.Data, nil
}

// RoundRobin submits one reading for each facility in order. The first
// failure stops the pass.
func (h *Harness) RoundRobin(ctx context.Context, facilityIDs []string) error {
	for _, facilityID := range facilityIDs {
		if _, err := h.SubmitOnce(ctx, facilityID); err != nil {
			return fmt.Errorf("round-robin submit for %s: %w", facilityID, err)
		}
	}
	return nil
}

// Start schedules continuous submissions for a facility, beginning
// immediately and repeating at the given interval until Stop. Restarting a
// running facility replaces its schedule.
func (h *Harness) Start(facilityID string, interval time.Duration) {
	h.Stop(facilityID)

	stop := make(chan struct{})
	h.mu.Lock()
	h.tasks[facilityID] = stop
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		nuts.L.Infof("[Simulator] Started auto-simulation for facility %s (every %v)", facilityID, interval)
		for {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if _, err := h.SubmitOnce(ctx, facilityID); err != nil {
				nuts.L.Warnf("[Simulator] Submission failed for facility %s: %v", facilityID, err)
			}
			cancel()

			select {
			case <-stop:
				nuts.L.Infof("[Simulator] Stopped auto-simulation for facility %s", facilityID)
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the scheduled submissions for a facility. Returns false if
// none was running.
func (h *Harness) Stop(facilityID string) bool {
	h.mu.Lock()
	stop, ok := h.tasks[facilityID]
	if ok {
		delete(h.tasks, facilityID)
	}
	h.mu.Unlock()

	if ok {
		close(stop)
	}
	return ok
}

// StopAll cancels every scheduled task and waits for the workers to exit.
func (h *Harness) StopAll() {
	h.mu.Lock()
	for facilityID, stop := range h.tasks {
		close(stop)
		delete(h.tasks, facilityID)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Active lists facilities with a running schedule.
func (h *Harness) Active() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	active := make([]string, 0, len(h.tasks))
	for facilityID := range h.tasks {
		active = append(active, facilityID)
	}
	return active
}
