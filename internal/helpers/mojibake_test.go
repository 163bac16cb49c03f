package helpers

import "testing"

func TestFixMojibake(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty string", "", ""},
		{"Clean ASCII untouched", "A perfectly normal title", "A perfectly normal title"},
		{"Clean Unicode untouched", "Канал — видео с «кавычками»", "Канал — видео с «кавычками»"},
		{"Windows-1252 apostrophe", "Itâ€™s here", "It’s here"},
		{"Latin-1 accented e", "CafÃ© de Paris", "Café de Paris"},
		{"Portuguese tilde", "JoÃ£o e MarÃ­a", "João e María"},
		{"Emoji mangled", "Great ðŸ˜€ video", "Great 😀 video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixMojibake(tt.input)
			if got != tt.want {
				t.Errorf("FixMojibake(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFixMojibakeNeverAddsMarkers(t *testing.T) {
	inputs := []string{
		"clean", "â€™", "Ã©", "ðŸ˜€", "half â broken", "Ã Ã Ã",
	}
	for _, input := range inputs {
		got := FixMojibake(input)
		if markerCount(got) > markerCount(input) {
			t.Errorf("FixMojibake(%q) = %q increased marker count", input, got)
		}
	}
}

func TestFixMojibakeIdempotentOnClean(t *testing.T) {
	clean := []string{"no markers here", "numbers 123", "русский текст", "日本語"}
	for _, s := range clean {
		if got := FixMojibake(s); got != s {
			t.Errorf("FixMojibake(%q) = %q, want unchanged", s, got)
		}
	}
}
