package model

import "testing"

func TestMediaKind_Rules(t *testing.T) {
	tests := []struct {
		name     string
		kind     MediaKind
		fileName string
		mime     string
		wantExt  bool
		wantMIME bool
	}{
		{"mp4 video", MediaKindVideo, "clip.MP4", "video/mp4", true, true},
		{"mkv video", MediaKindVideo, "clip.mkv", "video/x-matroska", true, true},
		{"image as video", MediaKindVideo, "clip.png", "image/png", false, false},
		{"jpeg thumbnail", MediaKindThumbnail, "thumb.jpeg", "image/jpeg", true, true},
		{"png thumbnail", MediaKindThumbnail, "thumb.png", "image/png", true, true},
		{"gif thumbnail", MediaKindThumbnail, "thumb.gif", "image/gif", false, false},
		{"no extension", MediaKindThumbnail, "thumb", "image/png", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.AllowsExtension(tt.fileName); got != tt.wantExt {
				t.Errorf("AllowsExtension(%q) = %v, want %v", tt.fileName, got, tt.wantExt)
			}
			if got := tt.kind.AllowsMIME(tt.mime); got != tt.wantMIME {
				t.Errorf("AllowsMIME(%q) = %v, want %v", tt.mime, got, tt.wantMIME)
			}
		})
	}
}

func TestMediaKind_OwnsKey(t *testing.T) {
	if !MediaKindVideo.OwnsKey("videos/a.mp4") {
		t.Error("video kind should own videos/a.mp4")
	}
	if MediaKindVideo.OwnsKey("thumbnails/a.png") {
		t.Error("video kind should not own thumbnails/a.png")
	}
	if MediaKindThumbnail.OwnsKey("thumbnails/") {
		t.Error("bare prefix is not a key")
	}
	if MediaKind("poster").IsValid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		key  string
		kind MediaKind
		want string
	}{
		{"videos/a.mp4", MediaKindVideo, "video/mp4"},
		{"videos/a.MKV", MediaKindVideo, "video/x-matroska"},
		{"videos/a.bin", MediaKindVideo, "application/octet-stream"},
		{"videos/noext", MediaKindVideo, "application/octet-stream"},
		{"thumbnails/a.png", MediaKindThumbnail, "image/png"},
		{"thumbnails/a.jpg", MediaKindThumbnail, "image/jpeg"},
		{"thumbnails/a", MediaKindThumbnail, "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := GuessContentType(tt.key, tt.kind); got != tt.want {
				t.Errorf("GuessContentType(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestMediaKind_Extensions(t *testing.T) {
	got := MediaKindThumbnail.Extensions()
	want := []string{"jpeg", "jpg", "png", "webp"}
	if len(got) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extensions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
