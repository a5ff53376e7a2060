package app

import "testing"

func TestReadPort(t *testing.T) {
	t.Setenv("TEST_PORT_VALID", "9001")
	t.Setenv("TEST_PORT_INVALID", "not-a-port")
	t.Setenv("TEST_PORT_ZERO", "0")

	if got := readPort("TEST_PORT_VALID"); got != 9001 {
		t.Errorf("expected 9001, got %d", got)
	}
	if got := readPort("TEST_PORT_INVALID"); got != 0 {
		t.Errorf("expected 0 for an unparsable port, got %d", got)
	}
	if got := readPort("TEST_PORT_ZERO"); got != 0 {
		t.Errorf("expected 0 for a zero port, got %d", got)
	}
	if got := readPort("TEST_PORT_UNSET"); got != 0 {
		t.Errorf("expected 0 for an unset key, got %d", got)
	}
}

func TestResolvePortPrecedence(t *testing.T) {
	t.Setenv("TEST_PRIMARY_PORT", "9100")
	t.Setenv("TEST_LEGACY_PORT", "9200")

	if got := resolvePort("TEST_PRIMARY_PORT", "TEST_LEGACY_PORT", 8082); got != 9100 {
		t.Errorf("primary env should win, got %d", got)
	}
	if got := resolvePort("TEST_PRIMARY_UNSET", "TEST_LEGACY_PORT", 8082); got != 9200 {
		t.Errorf("legacy env should be the second choice, got %d", got)
	}
	if got := resolvePort("TEST_PRIMARY_UNSET", "TEST_LEGACY_UNSET", 8082); got != 8082 {
		t.Errorf("fallback should apply last, got %d", got)
	}
}
