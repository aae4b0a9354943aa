package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/atharv3903/servicelocator/internal/db"
	"github.com/atharv3903/servicelocator/internal/model"
	"github.com/atharv3903/servicelocator/internal/retry"
)

type Result struct {
	Clients    int
	AvgLatency float64
	P50        float64
	P95        float64
	P99        float64
	Throughput float64
	Errors     int64
	Total      int64
}

// Status-toggle write workload: every request flips a random service between
// open and closed through /services/update.
func main() {
	logger := log.With(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)

	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: loadgen_db <mysql|postgres> <dsn> <server_addr>")
		os.Exit(2)
	}

	dialect := db.Dialect(os.Args[1])
	dsn := os.Args[2]
	server := os.Args[3]

	conn, err := db.Open(context.Background(), dialect, dsn, retry.DefaultConfig())
	if err != nil {
		logger.Log("during", "Open", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ids, err := loadServiceIDs(conn)
	if err != nil {
		logger.Log("during", "LoadServiceIDs", "err", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		logger.Log("msg", "no services in directory, seed it first")
		os.Exit(1)
	}
	logger.Log("msg", "loaded services", "count", len(ids))

	fmt.Println("Running status-toggle WRITE workload (increasing clients)")

	clientCounts := []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}
	testDuration := 5 * time.Second
	var results []Result

	for _, clients := range clientCounts {
		fmt.Printf("\n== %d CLIENTS ==\n", clients)
		res := runWriteTest(ids, server, clients, testDuration)
		results = append(results, res)

		fmt.Printf("RPS: %.2f | Avg %.2fms | P99 %.2fms | Errors=%d/%d\n",
			res.Throughput, res.AvgLatency, res.P99, res.Errors, res.Total)
	}

	fmt.Println("\nclients,avg_ms,p50,p95,p99,throughput,errors,total")
	for _, r := range results {
		fmt.Printf("%d,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%d\n",
			r.Clients, r.AvgLatency, r.P50, r.P95, r.P99,
			r.Throughput, r.Errors, r.Total)
	}

	f, err := os.Create("results_db.csv")
	if err != nil {
		logger.Log("during", "CreateCSV", "err", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Fprintf(f, "clients,avg_ms,p50,p95,p99,throughput,errors,total\n")
	for _, r := range results {
		fmt.Fprintf(f, "%d,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%d\n",
			r.Clients, r.AvgLatency, r.P50, r.P95, r.P99,
			r.Throughput, r.Errors, r.Total)
	}

	fmt.Println("\nSaved results_db.csv")
}

func loadServiceIDs(conn *sql.DB) ([]string, error) {
	rows, err := conn.Query(`SELECT service_id FROM services WHERE service_type <> 'user'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func runWriteTest(ids []string, server string, clients int, dur time.Duration) Result {
	client := &http.Client{Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex

	latencies := []time.Duration{}
	var totalReq int64
	var totalErr int64

	for w := 0; w < clients; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(seed))

			for ctx.Err() == nil {
				status := model.StatusOpen
				if rng.Intn(2) == 1 {
					status = model.StatusClosed
				}
				body, _ := json.Marshal(map[string]interface{}{
					"serviceId": ids[rng.Intn(len(ids))],
					"status":    status,
				})

				start := time.Now()
				resp, err := client.Post(server+"/services/update", "application/json", bytes.NewReader(body))
				lat := time.Since(start)

				mu.Lock()
				totalReq++
				if err != nil || resp.StatusCode != http.StatusOK {
					totalErr++
				} else {
					latencies = append(latencies, lat)
				}
				mu.Unlock()

				if err == nil {
					json.NewDecoder(resp.Body).Decode(&model.MessageResponse{})
					resp.Body.Close()
				}
			}
		}(time.Now().UnixNano() + int64(w))
	}

	wg.Wait()

	p50, p95, p99 := computePercentiles(latencies)

	return Result{
		Clients:    clients,
		AvgLatency: computeAvg(latencies),
		P50:        p50,
		P95:        p95,
		P99:        p99,
		Throughput: float64(totalReq) / dur.Seconds(),
		Errors:     totalErr,
		Total:      totalReq,
	}
}

func computeAvg(l []time.Duration) float64 {
	if len(l) == 0 {
		return 0
	}
	var sum time.Duration
	for _, x := range l {
		sum += x
	}
	return ms(sum) / float64(len(l))
}

func computePercentiles(l []time.Duration) (p50, p95, p99 float64) {
	if len(l) == 0 {
		return 0, 0, 0
	}
	tmp := make([]time.Duration, len(l))
	copy(tmp, l)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	idx := func(p float64) int {
		i := int(float64(len(tmp)) * p)
		if i >= len(tmp) {
			i = len(tmp) - 1
		}
		return i
	}

	return ms(tmp[idx(0.50)]), ms(tmp[idx(0.95)]), ms(tmp[idx(0.99)])
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
