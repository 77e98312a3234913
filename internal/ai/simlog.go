package ai

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a simulation run.
type SimLogEntry struct {
	Tick     int
	Agent    string  // label e.g. "E3", or "--" for global events
	Category string  // state, detect, cover, path, noise, fire, spawn
	Key      string  // event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] E0   state   change   patrol → engage
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-8s %-18s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a simulation. It is unbounded and
// machine-readable; tests and the headless report assert against it.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. With verbose on, per-tick position and
// detection-level entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry. Safe on a nil receiver so the core can log
// unconditionally.
func (sl *SimLog) Add(tick int, agent, category, key, value string, numVal float64) {
	if sl == nil {
		return
	}
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Agent:    agent,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, agent, category, key, value string, numVal float64) {
	if sl == nil || !sl.verbose {
		return
	}
	sl.Add(tick, agent, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	if sl == nil {
		return nil
	}
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	if sl == nil {
		return nil
	}
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for a specific agent label.
func (sl *SimLog) FilterAgent(label string) []SimLogEntry {
	if sl == nil {
		return nil
	}
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring (empty strings match anything).
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	if sl == nil {
		return false
	}
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// FirstTick returns the tick of the earliest entry matching category, key and
// value substring, or -1 when none matches.
func (sl *SimLog) FirstTick(category, key, valueSubstr string) int {
	if sl == nil {
		return -1
	}
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return e.Tick
	}
	return -1
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	if sl == nil {
		return ""
	}
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// agentLabel renders an agent id as a short log label.
func agentLabel(id AgentID) string {
	return fmt.Sprintf("E%d", int(id))
}
