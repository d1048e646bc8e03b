package refine

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/chaos-io/cutout/raster"
)

func TestRadius(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strength float64
		want     int
	}{
		{0, 0},
		{0.05, 0},
		{0.1, 0},
		{0.11, 1},
		{0.3, 1},
		{0.5, 2},
		{0.66, 2},
		{0.7, 3},
		{1, 3},
		{4, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Radius(tt.strength), "strength %v", tt.strength)
	}
}

func randomPlane(seed int64, w, h int) []uint8 {
	rng := rand.New(rand.NewSource(seed))
	plane := make([]uint8, w*h)
	for i := range plane {
		plane[i] = uint8(rng.Intn(256))
	}
	return plane
}

func TestSmooth_DeadZoneIsIdentity(t *testing.T) {
	t.Parallel()

	plane := randomPlane(1, 13, 7)
	for _, s := range []float64{0, 0.05, 0.1} {
		got, err := Smooth(plane, 13, 7, s)
		require.NoError(t, err)
		if diff := cmp.Diff(plane, got); diff != "" {
			t.Errorf("strength %v changed plane (-want +got):\n%s", s, diff)
		}
	}
}

func TestSmooth_MatchesNaive(t *testing.T) {
	t.Parallel()

	sizes := [][2]int{{1, 1}, {1, 9}, {9, 1}, {2, 3}, {7, 7}, {31, 17}, {64, 5}}
	for i, sz := range sizes {
		w, h := sz[0], sz[1]
		plane := randomPlane(int64(i+10), w, h)
		for _, s := range []float64{0.2, 0.5, 1} {
			got, err := Smooth(plane, w, h, s)
			require.NoError(t, err)
			want := smoothNaive(plane, w, h, s)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("%dx%d strength %v differs from naive blur (-want +got):\n%s", w, h, s, diff)
			}
		}
	}
}

func TestSmooth_BorderExcludesOutOfBounds(t *testing.T) {
	t.Parallel()

	// A uniform plane stays uniform only if out-of-bounds samples are not zero-padded.
	plane := make([]uint8, 6*4)
	for i := range plane {
		plane[i] = 200
	}
	got, err := Smooth(plane, 6, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, plane, got)

	// Corner of a 3x3 single-spot plane: the 2x2 in-bounds window averages 255/4.
	spot := []uint8{255, 0, 0, 0, 0, 0, 0, 0, 0}
	got, err = Smooth(spot, 3, 3, 0.3)
	require.NoError(t, err)
	assert.Equal(t, uint8(64), got[0])
	assert.Equal(t, uint8(43), got[1])
	assert.Equal(t, uint8(28), got[4])
}

func TestSmooth_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	plane := randomPlane(3, 8, 8)
	orig := append([]uint8(nil), plane...)
	_, err := Smooth(plane, 8, 8, 1)
	require.NoError(t, err)
	assert.Equal(t, orig, plane)
}

func TestSmooth_SecondPassIsSmoother(t *testing.T) {
	t.Parallel()

	const w, h = 24, 24
	plane := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/3+y/3)%2 == 0 {
				plane[y*w+x] = 255
			}
		}
	}

	once, err := Smooth(plane, w, h, 0.5)
	require.NoError(t, err)
	twice, err := Smooth(once, w, h, 0.5)
	require.NoError(t, err)

	assert.LessOrEqual(t, variance(twice), variance(once))
	assert.Less(t, variance(once), variance(plane))
}

func variance(plane []uint8) float64 {
	xs := make([]float64, len(plane))
	for i, v := range plane {
		xs[i] = float64(v)
	}
	return stat.Variance(xs, nil)
}

func TestSmooth_Errors(t *testing.T) {
	t.Parallel()

	_, err := Smooth(nil, 0, 3, 1)
	assert.ErrorIs(t, err, raster.ErrDimension)
	_, err = Smooth(make([]uint8, 5), 2, 3, 1)
	assert.ErrorIs(t, err, raster.ErrDimension)
}

func TestSmoothBuffer_OnlyAlphaChanges(t *testing.T) {
	t.Parallel()

	buf, err := raster.New(4, 4)
	require.NoError(t, err)
	pix := buf.Pix()
	for i := range pix {
		pix[i] = uint8(i * 7)
	}
	before := buf.Clone()

	require.NoError(t, SmoothBuffer(buf, 1))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r0, g0, b0, _ := before.At(x, y)
			r1, g1, b1, _ := buf.At(x, y)
			assert.Equal(t, [3]uint8{r0, g0, b0}, [3]uint8{r1, g1, b1})
		}
	}
	assert.NotEqual(t, before.AlphaPlane(), buf.AlphaPlane())
}
