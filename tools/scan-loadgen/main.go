// scan-loadgen is a tiny, dependency-free HTTP load generator tailored for
// the ratectl demo. It reuses HTTP connections (keep-alive) and supports
// concurrency so demo scripts run fast without relying on external tools.
//
// Modes:
//   - sequential: walk a numeric word range 0..n-1, one per request
//   - repeat:     hammer a single path repeatedly (useful for forcing a
//     scan target past its failure threshold quickly)
//
// Usage examples:
//
//	scan-loadgen -base=http://127.0.0.1:8080 -mode=sequential -n=5000 -c=16
//	scan-loadgen -base=http://127.0.0.1:8080 -mode=repeat -path=/admin -n=2000 -c=8
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type modeType string

const (
	modeSequential modeType = "sequential"
	modeRepeat     modeType = "repeat"
)

func main() {
	var (
		base = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host, e.g. http://127.0.0.1:8080")
		modeS = flag.String("mode", string(modeSequential), "Mode: sequential|repeat")
		path  = flag.String("path", "/admin", "Request path for repeat mode")
		N     = flag.Int("n", 5000, "Total requests to send")
		conc  = flag.Int("c", 8, "Number of concurrent workers")

		timeout    = flag.Duration("timeout", 20*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modeSequential && m != modeRepeat {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want sequential|repeat)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}

	baseURL := strings.TrimRight(*base, "/")

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var done int64
	var status2xx, status4xx, statusOther int64

	worker := func(id, count, offset int) {
		defer atomic.AddInt64(&done, int64(count))
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var u string
			if m == modeSequential {
				u = baseURL + "/" + strconv.Itoa(offset+i)
			} else {
				p := *path
				if !strings.HasPrefix(p, "/") {
					p = "/" + p
				}
				u = baseURL + p
			}
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			resp, err := client.Do(req)
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				switch {
				case resp.StatusCode < 300:
					atomic.AddInt64(&status2xx, 1)
				case resp.StatusCode < 500:
					atomic.AddInt64(&status4xx, 1)
				default:
					atomic.AddInt64(&statusOther, 1)
				}
			} else {
				time.Sleep(200 * time.Microsecond)
			}
		}
	}

	per := *N / *conc
	rem := *N - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	offset := 0
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n, off int) {
			defer wg.Done()
			worker(id, n, off)
		}(w, count, offset)
		offset += count
	}
	wg.Wait()
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*N) / elapsed.Seconds()
	fmt.Printf("scan-loadgen: mode=%s N=%d c=%d go=%d Duration=%s Throughput=%.0f req/s 2xx=%d 4xx=%d other=%d\n",
		m, *N, *conc, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), ops, status2xx, status4xx, statusOther)
}
