package qualcodec

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, quals []byte) []byte {
	t.Helper()
	var c Codec
	packed := append([]byte(nil), c.Encode(quals)...)
	decoded := append([]byte(nil), c.Decode(packed)...)
	if !bytes.Equal(decoded, quals) {
		t.Fatalf("round trip failed: got %v, want %v", decoded, quals)
	}
	return packed
}

func TestEmpty(t *testing.T) {
	packed := roundTrip(t, nil)
	if !bytes.Equal(packed, []byte{0x00}) {
		t.Errorf("empty input encoded to %v, want [0x00]", packed)
	}
}

func TestSingleValue(t *testing.T) {
	packed := roundTrip(t, []byte{20})
	want := []byte{0x01, 0xA0, 0x00, 0x00}
	if !bytes.Equal(packed, want) {
		t.Errorf("got %v, want %v", packed, want)
	}
}

func TestAllEqual(t *testing.T) {
	roundTrip(t, []byte{20, 20, 20, 20})
}

func TestAscendingRun(t *testing.T) {
	packed := roundTrip(t, []byte{0, 1, 2, 3})
	if len(packed) != 5 {
		t.Errorf("got length %d, want 5", len(packed))
	}
}

func TestSpanningRange(t *testing.T) {
	// min=0, max=63: a single wide block beats two narrow ones.
	packed := roundTrip(t, []byte{0, 63})
	if len(packed) != 5 {
		t.Errorf("got length %d, want 5", len(packed))
	}
}

func TestBlockLengthCap(t *testing.T) {
	quals := make([]byte, 300)
	for i := range quals {
		quals[i] = 10
	}
	packed := roundTrip(t, quals)
	if len(packed) != 7 {
		t.Errorf("got length %d, want 7", len(packed))
	}
}

func TestOutOfRangeQualityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an out-of-range quality score")
		}
	}()
	var c Codec
	c.Encode([]byte{64})
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var c Codec
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(400)
		quals := make([]byte, n)
		for i := range quals {
			quals[i] = byte(rng.Intn(MaxQuality + 1))
		}
		packed := append([]byte(nil), c.Encode(quals)...)
		decoded := append([]byte(nil), c.Decode(packed)...)
		if !bytes.Equal(decoded, quals) {
			t.Fatalf("trial %d: round trip failed for %v", trial, quals)
		}
	}
}

func TestRoundTripLargeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	quals := make([]byte, 10000)
	for i := range quals {
		quals[i] = byte(rng.Intn(MaxQuality + 1))
	}
	roundTrip(t, quals)
}

func TestMonotoneCost(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var c Codec
	for _, n := range []int{0, 1, 2, 10, 63, 64, 255, 256, 1000} {
		quals := make([]byte, n)
		for i := range quals {
			quals[i] = byte(rng.Intn(MaxQuality + 1))
		}
		packed := c.Encode(quals)
		if len(packed) > n+4 {
			t.Errorf("n=%d: packed length %d exceeds n+4", n, len(packed))
		}
	}
}

func TestReusedCodecBuffersDontLeak(t *testing.T) {
	var c Codec
	first := append([]byte(nil), c.Encode([]byte{1, 2, 3})...)
	c.Reset()
	second := append([]byte(nil), c.Encode([]byte{4, 5})...)
	decoded := append([]byte(nil), c.Decode(second)...)
	if !bytes.Equal(decoded, []byte{4, 5}) {
		t.Errorf("got %v, want [4 5]", decoded)
	}
	_ = first
}
