// FilePath: internal/hubservice/hubservice.simulate.go
package hubservice

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/bartech/facilityhub/internal/models"
	"github.com/bartech/facilityhub/internal/simulator"
)

var (
	simulateRngOnce sync.Once
	simulateRngMu   sync.Mutex
	simulateRng     *rand.Rand
)

// Simulate creates one synthetic reading for a facility through the regular
// submission path, so validation, persistence and fan-out all apply.
// Development/testing aid, mirrored by the standalone simulator CLI.
func (s *HubService) Simulate(ctx context.Context, facilityID string) (*models.Reading, error) {
	simulateRngOnce.Do(func() {
		simulateRng = rand.New(rand.NewSource(time.Now().UnixNano()))
	})

	simulateRngMu.Lock()
	submission := simulator.Generate(simulateRng, facilityID)
	simulateRngMu.Unlock()

	return s.SubmitReading(ctx, submission)
}
