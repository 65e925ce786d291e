package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasbeltran/feria/internal/domain"
)

func freePlot(id int) *domain.Plot {
	return &domain.Plot{ID: id, Enabled: true}
}

func TestSelection_ToggleAddAndRemove(t *testing.T) {
	sel := NewSelection(2)

	require.NoError(t, sel.Toggle(freePlot(1)))
	assert.True(t, sel.Contains(1))
	assert.Equal(t, 1, sel.Len())

	// Toggling again removes.
	require.NoError(t, sel.Toggle(freePlot(1)))
	assert.False(t, sel.Contains(1))
	assert.Equal(t, 0, sel.Len())
}

func TestSelection_NeverExceedsLimit(t *testing.T) {
	sel := NewSelection(2)
	require.NoError(t, sel.Toggle(freePlot(1)))
	require.NoError(t, sel.Toggle(freePlot(2)))
	assert.True(t, sel.Full())

	err := sel.Toggle(freePlot(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max selection reached (2 plot(s) allowed)")
	assert.Equal(t, 2, sel.Len())
}

func TestSelection_RemovalAllowedWhenFull(t *testing.T) {
	sel := NewSelection(1)
	require.NoError(t, sel.Toggle(freePlot(1)))
	require.True(t, sel.Full())

	// Deselecting is always possible; a full set is not a locked set.
	require.NoError(t, sel.Toggle(freePlot(1)))
	assert.False(t, sel.Full())
	assert.Equal(t, 0, sel.Len())
}

func TestSelection_RefusesOccupiedAndDisabled(t *testing.T) {
	sel := NewSelection(3)

	err := sel.Toggle(&domain.Plot{ID: 1, Enabled: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")

	err = sel.Toggle(&domain.Plot{ID: 2, Enabled: true, Occupied: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "occupied")

	assert.Equal(t, 0, sel.Len())
}

func TestSelection_RefusesInvalidPlot(t *testing.T) {
	sel := NewSelection(1)

	err := sel.Toggle(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plot")

	err = sel.Toggle(&domain.Plot{ID: 0, Enabled: true})
	require.Error(t, err)
}

func TestBulkSelection_Unbounded(t *testing.T) {
	sel := NewBulkSelection()
	for id := 1; id <= 50; id++ {
		require.NoError(t, sel.Toggle(freePlot(id)))
	}
	assert.Equal(t, 50, sel.Len())
	assert.False(t, sel.Full())
}

func TestBulkSelection_AcceptsDisabledAndOccupied(t *testing.T) {
	// Organizers mark disabled plots to re-enable them and occupied plots
	// show up in audits; only identity-less cells are refused.
	sel := NewBulkSelection()
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 1, Enabled: false}))
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 2, Enabled: true, Occupied: true}))
	assert.Equal(t, 2, sel.Len())

	assert.Error(t, sel.Toggle(&domain.Plot{}))
}

func TestSelection_IDsPreserveInsertionOrder(t *testing.T) {
	sel := NewSelection(3)
	require.NoError(t, sel.Toggle(freePlot(9)))
	require.NoError(t, sel.Toggle(freePlot(3)))
	require.NoError(t, sel.Toggle(freePlot(6)))

	assert.Equal(t, []int{9, 3, 6}, sel.IDs())
}

func TestSelection_Clear(t *testing.T) {
	sel := NewSelection(2)
	require.NoError(t, sel.Toggle(freePlot(1)))
	sel.Clear()
	assert.Equal(t, 0, sel.Len())
	assert.False(t, sel.Contains(1))
}
