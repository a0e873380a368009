package config

import "testing"

// assertEqual is a small generic helper shared by this package's tests.
func assertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func TestOptions_Validate_RequiresURLAndToken(t *testing.T) {
	o := Default()
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for missing url/token")
	}
	o.URL = "ws://example.com/tunnel"
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for missing token")
	}
	o.Token = "secret"
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOptions_Validate_RejectsBadProtocol(t *testing.T) {
	o := Default()
	o.URL, o.Token = "ws://x", "t"
	o.Protocol = "ftp"
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for invalid protocol")
	}
}

func TestOptions_Validate_RejectsBadPort(t *testing.T) {
	o := Default()
	o.URL, o.Token = "ws://x", "t"
	o.Port = 70000
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestOptions_Validate_SkipsDashboardPortWhenDisabled(t *testing.T) {
	o := Default()
	o.URL, o.Token = "ws://x", "t"
	o.NoDashboard = true
	o.DashboardPort = 0
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOptions_Validate_RejectsBadLogLevel(t *testing.T) {
	o := Default()
	o.URL, o.Token = "ws://x", "t"
	o.LogLevel = "verbose"
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for invalid logLevel")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error": LevelError, "warn": LevelWarn, "info": LevelInfo,
		"debug": LevelDebug, "trace": LevelTrace,
	}
	for s, want := range cases {
		got, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		assertEqual(t, s, got, want)
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestEnabled(t *testing.T) {
	if !Enabled(LevelInfo, LevelWarn) {
		t.Fatal("warn should be enabled at info threshold")
	}
	if Enabled(LevelInfo, LevelDebug) {
		t.Fatal("debug should not be enabled at info threshold")
	}
}
