package vehicles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizePlate(t *testing.T) {
	got, err := NormalizePlate("abc-1234")
	require.NoError(t, err)
	require.Equal(t, "ABC1234", got)

	got, err = NormalizePlate("abc1d23")
	require.NoError(t, err)
	require.Equal(t, "ABC1D23", got)

	for _, bad := range []string{"", "1234ABC", "AB12345", "ABCD123"} {
		_, err := NormalizePlate(bad)
		require.ErrorIs(t, err, ErrInvalidPlate, "plate %q", bad)
	}
}

func TestStaticProviderIsDeterministic(t *testing.T) {
	p := NewStaticProvider(0)

	var found VehicleInfo
	plates := []string{"ABC1234", "XYZ9A88", "KGB0T07", "QWE4R56"}
	for _, plate := range plates {
		info, err := p.Lookup(context.Background(), plate)
		if err != nil {
			require.ErrorIs(t, err, ErrNotFound)
			continue
		}
		found = info
		again, err := p.Lookup(context.Background(), plate)
		require.NoError(t, err)
		require.Equal(t, info, again)
	}
	if found.Plate != "" {
		require.NotEmpty(t, found.Brand)
		require.NotEmpty(t, found.Model)
		require.GreaterOrEqual(t, found.Year, 2008)
	}
}

func TestStaticProviderHonorsCancellation(t *testing.T) {
	p := NewStaticProvider(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Lookup(ctx, "ABC1234")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}
