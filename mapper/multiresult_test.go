package mapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type rowA struct {
	ID    int
	Label string
}

type summaryOut struct {
	Total int
}

type report struct {
	Items   []rowA
	Summary summaryOut
}

func TestModelFromResultsAssemblesSliceAndOutParam(t *testing.T) {
	var rowSets [MaxResultSets][]any
	rowSets[0] = []any{rowA{ID: 1, Label: "a"}, rowA{ID: 2, Label: "b"}}
	out := &summaryOut{Total: 99}

	result, flags, err := ModelFromResults(reflect.TypeOf(report{}), rowSets, out, "list_widgets")
	require.NoError(t, err)

	rep, ok := result.(*report)
	require.True(t, ok)
	require.Len(t, rep.Items, 2)
	require.Equal(t, 99, rep.Summary.Total)

	require.True(t, flags.Present(0))
	require.False(t, flags.Present(1))
	require.True(t, flags.OutModelPresent())
}

func TestModelFromResultsConstructsFreshWhenNothingMatches(t *testing.T) {
	var rowSets [MaxResultSets][]any
	result, flags, err := ModelFromResults(reflect.TypeOf(report{}), rowSets, nil, "list_widgets")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, RecordSetFlags(0), flags)
}

func TestModelFromResultsRootFromSingleRow(t *testing.T) {
	var rowSets [MaxResultSets][]any
	rowSets[0] = []any{rowA{ID: 5, Label: "solo"}}

	result, _, err := ModelFromResults(reflect.TypeOf(rowA{}), rowSets, nil, "get_widget")
	require.NoError(t, err)
	row, ok := result.(*rowA)
	require.True(t, ok)
	require.Equal(t, 5, row.ID)
}

func TestModelFromResultsRejectsMultiRowRoot(t *testing.T) {
	var rowSets [MaxResultSets][]any
	rowSets[0] = []any{rowA{ID: 1}, rowA{ID: 2}}

	_, _, err := ModelFromResults(reflect.TypeOf(rowA{}), rowSets, nil, "get_widget")
	require.Error(t, err)
}
