package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "exports/user/rm-1.png", want: "exports/user/rm-1.png"},
		{name: "simple prefix", prefix: "root", key: "exports/user/rm-1.png", want: "root/exports/user/rm-1.png"},
		{name: "prefix trailing slash", prefix: "root/", key: "exports/user/rm-1.png", want: "root/exports/user/rm-1.png"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/exports/user/rm-1.png", want: "root/exports/user/rm-1.png"},
		{name: "nested prefix", prefix: "root/sub", key: "exports/user/rm-1.png", want: "root/sub/exports/user/rm-1.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
