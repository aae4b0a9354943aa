package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"

	"github.com/atharv3903/servicelocator/internal/model"
)

type Result struct {
	Clients    int
	AvgLatency float64
	Throughput float64
}

func main() {
	logger := log.With(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: loadgen_closed <server_addr> [rows cols]")
		os.Exit(2)
	}
	server := os.Args[1]
	rows, cols, err := gridArgs(os.Args[2:])
	if err != nil {
		logger.Log("during", "ParseGrid", "err", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	// warm up so cold-start effects don't skew the first run
	if resp, err := client.Get(server + "/services/nearest?row=0&col=0&serviceType=hospital"); err == nil {
		resp.Body.Close()
	} else {
		logger.Log("during", "Warmup", "err", err)
	}

	clientCounts := []int{1, 2, 4, 8, 12, 16, 24, 32, 48, 64, 96, 128}
	testDuration := 10 * time.Second

	var results []Result

	for _, n := range clientCounts {
		fmt.Printf("\n== Running test with %d clients ==\n", n)
		avgLat, throughput := runClosedLoop(server, rows, cols, n, testDuration)
		results = append(results, Result{
			Clients:    n,
			AvgLatency: avgLat,
			Throughput: throughput,
		})
	}

	fmt.Println("\n========== CLOSED-LOOP RESULTS (CSV) ==========")
	fmt.Println("clients,avg_latency_ms,throughput_rps")
	for _, r := range results {
		fmt.Printf("%d,%.4f,%.2f\n", r.Clients, r.AvgLatency, r.Throughput)
	}
	fmt.Println("===============================================")

	f, err := os.Create("results.csv")
	if err != nil {
		logger.Log("during", "CreateCSV", "err", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Fprintf(f, "clients,avg_latency_ms,throughput_rps\n")
	for _, r := range results {
		fmt.Fprintf(f, "%d,%.4f,%.2f\n", r.Clients, r.AvgLatency, r.Throughput)
	}
}

// gridArgs reads the optional "rows cols" pair, defaulting to the 13x16 grid.
func gridArgs(args []string) (rows, cols int, err error) {
	if len(args) < 2 {
		return 13, 16, nil
	}
	if rows, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, err
	}
	if cols, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, err
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("grid %dx%d must be positive", rows, cols)
	}
	return rows, cols, nil
}

// runClosedLoop keeps clients requests in flight for dur against random cells
// of a rows x cols grid and reports the average latency in ms and the request rate.
func runClosedLoop(server string, rows, cols, clients int, dur time.Duration) (float64, float64) {
	transport := &http.Transport{
		MaxIdleConns:        500,
		MaxIdleConnsPerHost: 500,
		MaxConnsPerHost:     2000,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   5 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	var wg sync.WaitGroup

	var mu sync.Mutex
	var totalLatency time.Duration
	var totalReq int64

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))

			for ctx.Err() == nil {
				typ := model.TypeHospital
				if rnd.Intn(2) == 1 {
					typ = model.TypeAmbulance
				}
				url := fmt.Sprintf("%s/services/nearest?row=%d&col=%d&serviceType=%s", server, rnd.Intn(rows), rnd.Intn(cols), typ)

				start := time.Now()
				resp, err := client.Get(url)
				lat := time.Since(start)

				if err != nil {
					continue
				}
				json.NewDecoder(resp.Body).Decode(&model.NearestResponse{})
				resp.Body.Close()

				mu.Lock()
				totalLatency += lat
				totalReq++
				mu.Unlock()
			}
		}(time.Now().UnixNano() + int64(i))
	}

	wg.Wait()

	if totalReq == 0 {
		return 0, 0
	}

	avgLat := float64(totalLatency.Microseconds()) / 1000 / float64(totalReq)
	throughput := float64(totalReq) / dur.Seconds()

	return avgLat, throughput
}
