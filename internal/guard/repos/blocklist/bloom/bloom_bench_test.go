package bloom

import (
	"strconv"
	"testing"
)

func hosts(n int, apex string) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte("h" + strconv.Itoa(i) + "." + apex)
	}
	return out
}

func BenchmarkFilter_Miss(b *testing.B) {
	const n = 10_000
	bf := NewFactory().New(n, DefaultFPRate)
	for _, h := range hosts(n, "blocked.test") {
		bf.Add(h)
	}
	probe := hosts(n, "clean.example")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bf.MightContain(probe[i%n])
	}
}

func BenchmarkFilter_Hit(b *testing.B) {
	const n = 10_000
	bf := NewFactory().New(n, DefaultFPRate)
	in := hosts(n, "blocked.test")
	for _, h := range in {
		bf.Add(h)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bf.MightContain(in[i%n])
	}
}
