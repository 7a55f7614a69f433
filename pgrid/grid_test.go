package pgrid_test

import (
	"testing"

	"github.com/pitwall-engine/pitwall/pgrid"
	"github.com/stretchr/testify/require"
)

func TestGrid_reserveAndOverlap(t *testing.T) {
	t.Parallel()

	g := pgrid.New(2, 2)

	// Left column, both rows.
	require.NoError(t, g.Reserve(pgrid.Region{Row: 0, Col: 0, RowSpan: 2}))
	require.True(t, g.Occupied(0, 0))
	require.True(t, g.Occupied(1, 0))
	require.False(t, g.Occupied(0, 1))

	// Anything touching the left column now fails.
	err := g.Reserve(pgrid.Region{Row: 1, Col: 0, ColSpan: 2})
	var overlap pgrid.OverlapError
	require.ErrorAs(t, err, &overlap)

	// The failed reservation marked nothing.
	require.False(t, g.Occupied(1, 1))

	require.NoError(t, g.Reserve(pgrid.Region{Row: 0, Col: 1}))
	require.NoError(t, g.Reserve(pgrid.Region{Row: 1, Col: 1}))
}

func TestGrid_outOfBounds(t *testing.T) {
	t.Parallel()

	g := pgrid.New(2, 3)

	var oob pgrid.OutOfBoundsError
	require.ErrorAs(t, g.Reserve(pgrid.Region{Row: 2, Col: 0}), &oob)
	require.ErrorAs(t, g.Reserve(pgrid.Region{Row: 0, Col: 2, ColSpan: 2}), &oob)
	require.ErrorAs(t, g.Reserve(pgrid.Region{Row: -1, Col: 0}), &oob)
}

func TestGrid_zeroSpansMeanOne(t *testing.T) {
	t.Parallel()

	g := pgrid.New(1, 1)
	require.NoError(t, g.Reserve(pgrid.Region{}))
	require.True(t, g.Occupied(0, 0))
}

func TestGrid_panicsOnBadDimensions(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { pgrid.New(0, 3) })
}
