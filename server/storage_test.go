package server

import (
	"strings"
	"testing"
)

func TestBucketPath(t *testing.T) {
	s := &Server{dataDir: "/data"}

	tests := []struct {
		name    string
		bucket  string
		object  string
		wantErr bool
	}{
		{"valid invoice image", "invoice-images", "receipt.png", false},
		{"valid avatar", "avatars", "me.jpg", false},
		{"unknown bucket", "secrets", "x.png", true},
		{"path traversal", "avatars", "../../etc/passwd", true},
		{"nested path", "avatars", "a/b.png", true},
		{"empty name", "avatars", "", true},
		{"dot name", "avatars", ".", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := s.bucketPath(tt.bucket, tt.object)
			if tt.wantErr {
				if err == nil {
					t.Errorf("bucketPath(%q, %q) = %q, want error", tt.bucket, tt.object, path)
				}
				return
			}
			if err != nil {
				t.Fatalf("bucketPath(%q, %q) error = %v", tt.bucket, tt.object, err)
			}
			if !strings.HasPrefix(path, "/data/"+tt.bucket+"/") {
				t.Errorf("path %q not under bucket directory", path)
			}
		})
	}
}
