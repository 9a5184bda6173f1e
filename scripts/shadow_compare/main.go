// Command shadow_compare replays read-only API calls against a baseline and a candidate
// deployment sharing one database and reports every status or body difference.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Response meta carries timings and signed links that legitimately differ per deployment.
var defaultIgnore = []string{"meta"}

type target struct {
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Critical bool     `json:"critical"`
	Ignore   []string `json:"ignore,omitempty"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type endpoint struct {
	base  string
	token string
}

type capture struct {
	status   int
	body     []byte
	duration time.Duration
}

type comparison struct {
	Target    target
	Baseline  capture
	Candidate capture
	Diff      string
	Err       error
}

func (c comparison) differs() bool {
	return c.Err != nil || c.Baseline.status != c.Candidate.status || c.Diff != ""
}

func main() {
	var (
		baseline    endpoint
		candidate   endpoint
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&baseline.base, "baseline", "http://localhost:8080", "Baseline API base URL")
	flag.StringVar(&candidate.base, "candidate", "http://localhost:8081", "Candidate API base URL")
	flag.StringVar(&baseline.token, "baseline-token", os.Getenv("SHADOW_BASELINE_TOKEN"), "Bearer token for the baseline")
	flag.StringVar(&candidate.token, "candidate-token", os.Getenv("SHADOW_CANDIDATE_TOKEN"), "Bearer token for the candidate")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	flag.Parse()

	logr, _ := zap.NewDevelopment()
	defer func() { _ = logr.Sync() }()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		logr.Fatal("failed to load targets", zap.Error(err))
	}

	client := &http.Client{Timeout: timeout}
	results := run(context.Background(), client, baseline, candidate, targets)

	breaking, optional := summarize(logr, results)
	logr.Info("shadow compare finished", zap.Int("breaking", breaking), zap.Int("optional", optional))
	if breaking > 0 {
		_ = logr.Sync()
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func run(ctx context.Context, client *http.Client, baseline, candidate endpoint, targets []target) []comparison {
	results := make([]comparison, len(targets))
	for i, tgt := range targets {
		results[i] = compareTarget(ctx, client, baseline, candidate, tgt)
	}
	return results
}

func compareTarget(ctx context.Context, client *http.Client, baseline, candidate endpoint, tgt target) comparison {
	comp := comparison{Target: tgt}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comp.Baseline, err = fetch(gctx, client, baseline, tgt)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comp.Candidate, err = fetch(gctx, client, candidate, tgt)
		if err != nil {
			return fmt.Errorf("candidate: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		comp.Err = err
		return comp
	}

	ignore := append(append([]string{}, defaultIgnore...), tgt.Ignore...)
	comp.Diff, comp.Err = diffBodies(comp.Baseline.body, comp.Candidate.body, ignore)
	return comp
}

func fetch(ctx context.Context, client *http.Client, ep endpoint, tgt target) (capture, error) {
	if client == nil {
		return capture{}, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(ep.base, "/")+path, nil)
	if err != nil {
		return capture{}, err
	}
	if ep.token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return capture{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return capture{}, fmt.Errorf("read body: %w", err)
	}
	return capture{status: resp.StatusCode, body: body, duration: time.Since(start)}, nil
}

// diffBodies compares two JSON documents ignoring the named top-level keys. Non-JSON bodies
// are compared byte for byte after trimming.
func diffBodies(a, b []byte, ignore []string) (string, error) {
	var aj, bj interface{}
	aErr := json.Unmarshal(a, &aj)
	bErr := json.Unmarshal(b, &bj)
	if aErr != nil || bErr != nil {
		return cmp.Diff(strings.TrimSpace(string(a)), strings.TrimSpace(string(b))), nil
	}

	dropKeys(aj, ignore)
	dropKeys(bj, ignore)
	return cmp.Diff(aj, bj, cmpopts.EquateEmpty()), nil
}

func dropKeys(doc interface{}, keys []string) {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return
	}
	for _, k := range keys {
		delete(obj, k)
	}
}

func summarize(logr *zap.Logger, results []comparison) (breaking, optional int) {
	for _, res := range results {
		fields := []zap.Field{
			zap.String("method", res.Target.Method),
			zap.String("path", res.Target.Path),
			zap.Int("baseline_status", res.Baseline.status),
			zap.Int("candidate_status", res.Candidate.status),
			zap.Duration("baseline_latency", res.Baseline.duration),
			zap.Duration("candidate_latency", res.Candidate.duration),
			zap.Bool("critical", res.Target.Critical),
		}
		if !res.differs() {
			logr.Info("match", fields...)
			continue
		}
		if res.Target.Critical {
			breaking++
		} else {
			optional++
		}
		if res.Err != nil {
			logr.Error("request failed", append(fields, zap.Error(res.Err))...)
			continue
		}
		logr.Warn("diff", append(fields, zap.String("body_diff", res.Diff))...)
	}
	return breaking, optional
}
