package shared

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSettleKeepsSiblingsOnFailure(t *testing.T) {
	ctx := context.Background()
	var g errgroup.Group
	var names Result[[]string]
	var count Result[int]

	Settle(ctx, &g, "names", &names, func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	Settle(ctx, &g, "count", &count, func(context.Context) (int, error) {
		return 7, errors.New("permission denied for table romaneios")
	})
	require.NoError(t, g.Wait())

	require.True(t, names.OK())
	require.Equal(t, []string{"a", "b"}, names.ValueOrZero())
	require.False(t, count.OK())
	require.Zero(t, count.ValueOrZero())

	warnings, err := Warnings(ctx, names, count)
	require.NoError(t, err)
	require.Equal(t, []LoadWarning{{Source: "count", Message: "permission denied for table romaneios"}}, warnings)
}

func TestWarningsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var g errgroup.Group
	var a, b Result[int]
	cancel()
	Settle(ctx, &g, "a", &a, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	Settle(ctx, &g, "b", &b, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	require.NoError(t, g.Wait())

	warnings, err := Warnings(ctx, a, b)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, warnings)
}

func TestFoldAndCompareNumeric(t *testing.T) {
	require.Equal(t, "compra simbolica", Fold("  COMPRA Simbólica "))
	require.Equal(t, "vencimento", Fold("Vencimento"))

	numbers := []string{"R-10", "R-2", "R-1", "R-100", "R-9"}
	sort.Slice(numbers, func(i, j int) bool { return CompareNumeric(numbers[i], numbers[j]) < 0 })
	require.Equal(t, []string{"R-1", "R-2", "R-9", "R-10", "R-100"}, numbers)
}
