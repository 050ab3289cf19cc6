package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", "uid-1") || !m.Enabled("c", "uid-1") || !m.Enabled("e", "uid-1") {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", "uid-1") || m.Enabled("d", "uid-1") || m.Enabled("f", "uid-1") {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", "uid-1") {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", "uid-1") {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", "uid-42")
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", "uid-42"); got != first {
			t.Fatal("rollout evaluation must be deterministic per identity")
		}
	}

	if m.Enabled("canary", "") {
		t.Fatal("percentage rollout requires a non-empty uid")
	}
}

func TestDisabled_KillSwitch(t *testing.T) {
	m := NewManager("comments=off,reactions=on")

	if !m.Disabled("comments") {
		t.Fatal("explicitly off flag should read as disabled")
	}
	if m.Disabled("reactions") {
		t.Fatal("explicitly on flag should not read as disabled")
	}
	if m.Disabled("unconfigured") {
		t.Fatal("absent flag should not read as disabled")
	}

	var nilManager *Manager
	if nilManager.Disabled("anything") {
		t.Fatal("nil manager should never report disabled")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot("uid-123")
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}
