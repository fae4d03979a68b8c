package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVPadsAndTruncates(t *testing.T) {
	table := Table{
		Columns: []string{"a", "b", "c"},
		Rows: [][]string{
			{"1"},
			{"1", "2", "3", "4"},
		},
	}
	payload, err := CSV(table)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,,\n1,2,3\n", string(payload))
}

func TestCSVRequiresColumns(t *testing.T) {
	_, err := CSV(Table{})
	assert.Error(t, err)
}
