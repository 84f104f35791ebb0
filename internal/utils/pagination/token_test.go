package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	token := EncodeToken("2025-01-15", "0af3")
	assert.NotEmpty(t, token, "Token should not be empty")

	date, id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", date)
	assert.Equal(t, "0af3", id)
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	_, _, err = DecodeToken(EncodeToken("2025-01-15", "")[:4])
	assert.Error(t, err)
}

type row struct{ date, id string }

func rowKey(r row) (string, string) { return r.date, r.id }

func TestPage(t *testing.T) {
	var rows []row
	for i := 0; i < 5; i++ {
		rows = append(rows, row{date: fmt.Sprintf("2025-01-0%d", i/2+1), id: fmt.Sprintf("r%d", i)})
	}

	tests := []struct {
		name  string
		limit int
		pages [][]string
	}{
		{name: "two per page", limit: 2, pages: [][]string{{"r0", "r1"}, {"r2", "r3"}, {"r4"}}},
		{name: "exact fit", limit: 5, pages: [][]string{{"r0", "r1", "r2", "r3", "r4"}}},
		{name: "default limit", limit: 0, pages: [][]string{{"r0", "r1", "r2", "r3", "r4"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			for i, want := range tt.pages {
				page, next, err := Page(rows, tt.limit, token, rowKey)
				require.NoError(t, err)
				ids := make([]string, len(page))
				for j, r := range page {
					ids[j] = r.id
				}
				assert.Equal(t, want, ids)
				if i == len(tt.pages)-1 {
					assert.Empty(t, next)
				}
				token = next
			}
		})
	}
}
