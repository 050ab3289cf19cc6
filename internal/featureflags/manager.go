package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "comments=on,reactions=25%,promotions=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given identity UID.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic per-identity rollout, e.g. 25%)
func (m *Manager) Enabled(name, uid string) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pctRaw := strings.TrimSuffix(value, "%")
		pct, err := strconv.Atoi(pctRaw)
		if err != nil {
			return false
		}
		if pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if uid == "" {
			return false
		}
		return rolloutBucket(name, uid) < pct
	}

	return false
}

// Disabled reports whether a flag has been explicitly switched off. Unlike
// Enabled, an absent flag reads as NOT disabled, so core features stay on
// unless ops flips the kill switch.
func (m *Manager) Disabled(name string) bool {
	if m == nil {
		return false
	}
	switch m.flags[normalize(name)] {
	case "off", "false", "0":
		return true
	}
	return false
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one identity.
func (m *Manager) Snapshot(uid string) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, uid)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, uid string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + uid))
	return int(h.Sum32() % 100)
}
