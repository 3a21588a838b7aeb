package mudgate

import "testing"

func TestNewCapabilitiesDefaults(t *testing.T) {
	c := NewCapabilities(false)
	if c.Width != 78 || c.Height != 24 {
		t.Errorf("unexpected default size: %dx%d", c.Width, c.Height)
	}
	if !c.SuppressGA {
		t.Error("expected SuppressGA to default true")
	}
	if c.ClientName != "UNKNOWN" || c.ClientVersion != "UNKNOWN" || c.TerminalType != "UNKNOWN" {
		t.Errorf("expected UNKNOWN identity defaults, got %+v", c)
	}
	if c.TLS {
		t.Error("expected TLS false when not requested")
	}
}

func TestApplyMTTS(t *testing.T) {
	c := &Capabilities{}
	// 1 (ANSI) + 4 (UTF8) + 8 (256 color) = 13
	c.ApplyMTTS(13)
	if !c.ANSI || !c.UTF8 || !c.Xterm256 {
		t.Errorf("expected ANSI/UTF8/Xterm256 set, got %+v", c)
	}
	if c.VT100 || c.MouseTracking || c.OSCColorPalette || c.ScreenReader || c.Proxy {
		t.Errorf("expected only requested bits set, got %+v", c)
	}
}

func TestApplyMTTSAllBits(t *testing.T) {
	c := &Capabilities{}
	c.ApplyMTTS(255)
	if !(c.ANSI && c.VT100 && c.UTF8 && c.Xterm256 && c.MouseTracking && c.OSCColorPalette && c.ScreenReader && c.Proxy) {
		t.Errorf("expected every bit set, got %+v", c)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCapabilities(false)
	snap := c.Snapshot()
	c.Width = 200
	if snap.Width == 200 {
		t.Error("expected Snapshot to be an independent copy")
	}
}
