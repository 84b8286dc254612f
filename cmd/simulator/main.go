// FilePath: cmd/simulator/main.go
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bartech/facilityhub/internal/simulator"
)

func main() {
	var baseURL string
	var facilityCSV string
	var interval time.Duration
	var jitter time.Duration
	var timeout time.Duration
	var count int
	var seed int64

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "hub base URL")
	flag.StringVar(&facilityCSV, "facilities", "", "comma-separated facility IDs to simulate (required)")
	flag.DurationVar(&interval, "interval", 5*time.Second, "base delay between round-robin passes")
	flag.DurationVar(&jitter, "jitter", 500*time.Millisecond, "max random delay added to each interval")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP request timeout")
	flag.IntVar(&count, "count", 0, "number of round-robin passes to run (0 = infinite)")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 = use current time)")
	flag.Parse()

	if interval <= 0 {
		log.Fatal("interval must be > 0")
	}
	if jitter < 0 {
		log.Fatal("jitter must be >= 0")
	}
	if timeout <= 0 {
		log.Fatal("timeout must be > 0")
	}
	if count < 0 {
		log.Fatal("count must be >= 0")
	}

	facilityIDs := splitFacilities(facilityCSV)
	if len(facilityIDs) == 0 {
		log.Fatal("at least one facility ID is required (-facilities fac_a,fac_b)")
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Printf("simulator started seed=%d target=%s facilities=%v interval=%s", seed, baseURL, facilityIDs, interval)

	harness := simulator.NewHarness(baseURL, timeout, seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	passes := 0
	for {
		if count > 0 && passes >= count {
			log.Printf("simulation complete (%d passes)", passes)
			return
		}

		if err := harness.RoundRobin(ctx, facilityIDs); err != nil {
			if ctx.Err() != nil {
				log.Printf("simulation stopped")
				return
			}
			log.Printf("send failed: %v", err)
		} else {
			passes++
			log.Printf("pass #%d: submitted %d readings", passes, len(facilityIDs))
		}

		delay := interval
		if jitter > 0 {
			delay += time.Duration(rng.Int63n(int64(jitter) + 1))
		}

		select {
		case <-ctx.Done():
			log.Printf("simulation stopped")
			return
		case <-time.After(delay):
		}
	}
}

func splitFacilities(csv string) []string {
	var ids []string
	for _, id := range strings.Split(csv, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
