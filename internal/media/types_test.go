package media

import "testing"

func TestSetSize(t *testing.T) {
	var c Candidate
	c.SetSize(10 * 1024 * 1024)
	if c.SizeBytes != 10*1024*1024 {
		t.Errorf("SizeBytes = %d", c.SizeBytes)
	}
	if c.SizeLabel == "" || c.SizeLabel == SizeUnknown {
		t.Errorf("SizeLabel = %q", c.SizeLabel)
	}

	c.SetSize(0)
	if c.SizeLabel != SizeUnknown {
		t.Errorf("zero size should label unknown, got %q", c.SizeLabel)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "unknown"},
		{-5, "unknown"},
		{42, "0:42"},
		{75, "1:15"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestOriginClassString(t *testing.T) {
	tests := []struct {
		origin OriginClass
		want   string
	}{
		{DirectFile, "direct-file"},
		{PlatformEmbed, "platform-embed"},
		{Ephemeral, "ephemeral"},
		{NetworkInferred, "network-inferred"},
	}
	for _, tt := range tests {
		if got := tt.origin.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
