package memocache

import "testing"

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			"counted",
			Info{Hits: 10, Misses: 3, CurrSize: 5, MaxSize: 128},
			"Info(hits=10, misses=3, currsize=5, maxsize=128)",
		},
		{
			"unknown size",
			Info{Hits: 1, Misses: 2, CurrSize: SizeUnknown},
			"Info(hits=1, misses=2, currsize=unknown, maxsize=0)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
