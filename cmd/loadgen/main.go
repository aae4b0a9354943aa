package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-kit/log"

	"github.com/atharv3903/servicelocator/internal/model"
)

var serviceTypes = []model.ServiceType{model.TypeHospital, model.TypeAmbulance}

func main() {
	logger := log.With(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: loadgen <server_addr> [rows cols]")
		os.Exit(2)
	}

	server := os.Args[1]
	rows, cols := 13, 16
	if len(os.Args) >= 4 {
		var err error
		if rows, err = strconv.Atoi(os.Args[2]); err != nil {
			logger.Log("during", "ParseRows", "err", err)
			os.Exit(2)
		}
		if cols, err = strconv.Atoi(os.Args[3]); err != nil {
			logger.Log("during", "ParseCols", "err", err)
			os.Exit(2)
		}
	}
	duration := 30 * time.Second

	var (
		totalReq   int64
		totalErr   int64
		totalFound int64
		totalMiss  int64
		hops       int64
	)
	var latencies []time.Duration

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(server + "/healthz")
	if err != nil {
		logger.Log("during", "HealthCheck", "err", err)
		os.Exit(1)
	}
	resp.Body.Close()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	logger.Log("msg", "running loadgen", "duration", duration, "rows", rows, "cols", cols)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	for ctx.Err() == nil {
		row, col := rnd.Intn(rows), rnd.Intn(cols)
		typ := serviceTypes[rnd.Intn(len(serviceTypes))]

		start := time.Now()
		resp, err := client.Get(fmt.Sprintf("%s/services/nearest?row=%d&col=%d&serviceType=%s", server, row, col, typ))
		lat := time.Since(start)

		totalReq++
		latencies = append(latencies, lat)

		if err != nil {
			totalErr++
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var nr model.NearestResponse
			if json.NewDecoder(resp.Body).Decode(&nr) == nil {
				totalFound++
				hops += int64(nr.Distance)
			}
		case http.StatusNotFound:
			totalMiss++
		default:
			totalErr++
		}
		resp.Body.Close()
	}

	fmt.Println("\n========== LOADGEN SUMMARY ==========")
	fmt.Printf("Total Requests: %d\n", totalReq)
	fmt.Printf("Errors: %d\n", totalErr)
	if totalReq > 0 {
		fmt.Printf("Found: %.1f%%  No service: %.1f%%\n",
			float64(totalFound)/float64(totalReq)*100, float64(totalMiss)/float64(totalReq)*100)
	}
	if totalFound > 0 {
		fmt.Printf("Avg Distance: %.2f\n", float64(hops)/float64(totalFound))
	}

	if len(latencies) > 0 {
		fastest, slowest := latencies[0], latencies[0]
		var sum time.Duration
		for _, l := range latencies {
			if l < fastest {
				fastest = l
			}
			if l > slowest {
				slowest = l
			}
			sum += l
		}

		fmt.Printf("Avg Latency: %v\n", sum/time.Duration(len(latencies)))
		fmt.Printf("Fastest: %v\n", fastest)
		fmt.Printf("Slowest: %v\n", slowest)
	}

	fmt.Println("=====================================")
}
