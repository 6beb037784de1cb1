package index

import "testing"

func TestResolveKind(t *testing.T) {
	tests := []struct {
		name string
		kind string
		size int
		dim  int
		want string
	}{
		{name: "explicit brute", kind: KindBrute, size: 100000, dim: 384, want: KindBrute},
		{name: "explicit cover", kind: KindCover, size: 3, dim: 2, want: KindCover},
		{name: "auto small", kind: KindAuto, size: 50, dim: 384, want: KindBrute},
		{name: "auto large dense", kind: KindAuto, size: 8000, dim: 384, want: KindCover},
		{name: "auto large sparse", kind: KindAuto, size: 4000, dim: 384, want: KindBrute},
		{name: "auto low dim", kind: KindAuto, size: 10000, dim: 8, want: KindBrute},
		{name: "empty kind", kind: "", size: 8000, dim: 384, want: KindCover},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveKind(tc.kind, tc.size, tc.dim); got != tc.want {
				t.Fatalf("ResolveKind(%q,%d,%d) = %q, want %q", tc.kind, tc.size, tc.dim, got, tc.want)
			}
		})
	}
}
