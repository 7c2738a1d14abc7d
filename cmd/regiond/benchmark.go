package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/embarkmaps/regiond/geo"
)

var (
	benchmarkCount = flag.Int("benchmark.count", 1000, "the random routing count for benchmark")
	benchmarkSeed  = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU   = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

type benchHealth struct {
	Bounds struct {
		Min geo.Point `json:"min"`
		Max geo.Point `json:"max"`
	} `json:"bounds"`
}

type benchQuery struct {
	Origin      geo.Point `json:"origin"`
	Destination geo.Point `json:"destination"`
	Profile     string    `json:"profile"`
}

// runBenchmark fires random route requests at the running server and reports
// throughput.
func runBenchmark(port int) {
	logrus.SetLevel(logrus.WarnLevel)
	base := fmt.Sprintf("http://127.0.0.1:%d/api/v1", port)

	resp, err := http.Get(base + "/health")
	if err != nil {
		log.Fatalf("benchmark: health check failed: %v", err)
	}
	var health benchHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		log.Fatalf("benchmark: bad health response: %v", err)
	}
	resp.Body.Close()
	min, max := health.Bounds.Min, health.Bounds.Max

	e := rand.New(rand.NewSource(*benchmarkSeed))
	randPoint := func() geo.Point {
		return geo.Point{
			Lat: min.Lat + e.Float64()*(max.Lat-min.Lat),
			Lng: min.Lng + e.Float64()*(max.Lng-min.Lng),
		}
	}
	reqs := make([][]byte, *benchmarkCount)
	for i := range reqs {
		body, _ := json.Marshal(benchQuery{
			Origin:      randPoint(),
			Destination: randPoint(),
			Profile:     "fastest",
		})
		reqs[i] = body
	}

	post := func(body []byte) bool {
		resp, err := http.Post(base+"/route", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Error("benchmark failed, err:", err)
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}

	start := time.Now()
	var wg sync.WaitGroup
	var success atomic.Int32
	if *benchmarkCPU == 1 {
		for _, body := range reqs {
			if post(body) {
				success.Add(1)
			}
		}
	} else {
		runtime.GOMAXPROCS(*benchmarkCPU)
		wg.Add(*benchmarkCount)
		for _, body := range reqs {
			go func(body []byte) {
				defer wg.Done()
				if post(body) {
					success.Add(1)
				}
			}(body)
		}
		wg.Wait()
	}
	timeCost := time.Since(start) * time.Duration(*benchmarkCPU)
	log.Error(
		"benchmark finished", "\n",
		"count:", *benchmarkCount, "\n",
		"time:", timeCost, "\n",
		"avg:", timeCost/time.Duration(*benchmarkCount), "\n",
		"success:", success.Load(), "\n",
	)
}
