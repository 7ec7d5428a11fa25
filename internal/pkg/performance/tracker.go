package performance

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// maxSlowest bounds how many of the slowest commands are kept
const maxSlowest = 5

// Tracker aggregates timings of bot commands
type Tracker struct {
	mu sync.RWMutex

	started  time.Time
	commands map[string]*commandStats
	slowest  []CommandTiming
}

type commandStats struct {
	count    int
	failures int
	total    time.Duration
	max      time.Duration
}

// CommandTiming is one handled command
type CommandTiming struct {
	Command   string
	Duration  time.Duration
	Success   bool
	Timestamp time.Time
}

var globalTracker = NewTracker()

// GetTracker returns the global performance tracker
func GetTracker() *Tracker {
	return globalTracker
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{started: time.Now(), commands: make(map[string]*commandStats)}
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.started = time.Now()
	t.commands = make(map[string]*commandStats)
	t.slowest = t.slowest[:0]
}

// RecordCommand records one handled command. success is false when the user got a failure reply.
func (t *Tracker) RecordCommand(command string, d time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.commands[command]
	if !ok {
		st = &commandStats{}
		t.commands[command] = st
	}
	st.count++
	st.total += d
	if d > st.max {
		st.max = d
	}
	if !success {
		st.failures++
	}

	timing := CommandTiming{Command: command, Duration: d, Success: success, Timestamp: time.Now()}
	if len(t.slowest) < maxSlowest || d > t.slowest[len(t.slowest)-1].Duration {
		t.slowest = append(t.slowest, timing)
		sort.SliceStable(t.slowest, func(i, j int) bool { return t.slowest[i].Duration > t.slowest[j].Duration })
		if len(t.slowest) > maxSlowest {
			t.slowest = t.slowest[:maxSlowest]
		}
	}
}

// StatsResponse represents the JSON response structure for the /stats endpoint
type StatsResponse struct {
	Uptime   string                  `json:"uptime"`
	Commands map[string]CommandStats `json:"commands"`

	SlowestCommands []struct {
		Command  string `json:"command"`
		Duration string `json:"duration"`
		Success  bool   `json:"success"`
		At       string `json:"at"`
	} `json:"slowest_commands"`
}

// CommandStats is the per-command aggregate
type CommandStats struct {
	Count       int     `json:"count"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
	AvgTime     string  `json:"avg_time"`
	MaxTime     string  `json:"max_time"`
}

// GetStats returns structured metrics for the JSON API
func (t *Tracker) GetStats() StatsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp StatsResponse
	resp.Uptime = time.Since(t.started).Truncate(time.Second).String()
	resp.Commands = make(map[string]CommandStats, len(t.commands))
	for name, st := range t.commands {
		resp.Commands[name] = CommandStats{
			Count:       st.count,
			Failures:    st.failures,
			SuccessRate: float64(st.count-st.failures) / float64(st.count) * 100,
			AvgTime:     (st.total / time.Duration(st.count)).String(),
			MaxTime:     st.max.String(),
		}
	}

	for _, c := range t.slowest {
		resp.SlowestCommands = append(resp.SlowestCommands, struct {
			Command  string `json:"command"`
			Duration string `json:"duration"`
			Success  bool   `json:"success"`
			At       string `json:"at"`
		}{
			Command:  c.Command,
			Duration: c.Duration.String(),
			Success:  c.Success,
			At:       c.Timestamp.Format(time.RFC3339),
		})
	}
	return resp
}

// PrintSummary logs the per-command summary; called on shutdown
func (t *Tracker) PrintSummary() {
	stats := t.GetStats()
	if len(stats.Commands) == 0 {
		slog.Info("No commands handled")
		return
	}

	names := make([]string, 0, len(stats.Commands))
	for name := range stats.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	slog.Info("COMMAND SUMMARY", "uptime", stats.Uptime)
	for _, name := range names {
		c := stats.Commands[name]
		slog.Info("Command",
			"command", name,
			"count", c.Count,
			"success_rate", c.SuccessRate,
			"avg_time", c.AvgTime,
			"max_time", c.MaxTime)
	}
}
