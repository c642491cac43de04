package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/controller"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

func TestPrintView(t *testing.T) {
	testCases := []struct {
		name       string
		view       controller.View
		contains   []string
		notContain []string
	}{
		{
			name: "ascending sort marker",
			view: controller.View{
				Mode:       controller.ModeLocal,
				Cols:       []string{"id", "name"},
				PageItems:  []entity.Row{{"id": 2.0, "name": "Amy"}, {"id": 1.0, "name": "Bob"}},
				SortKey:    "name",
				SortDir:    entity.SortAsc,
				Total:      2,
				TotalPages: 1,
				CurPage:    1,
			},
			contains:   []string{"name ^", "Amy", "Bob", "1-2 of 2, page 1/1 (client mode)"},
			notContain: []string{"id ^", "id v"},
		},
		{
			name: "descending sort marker on a later page",
			view: controller.View{
				Mode:       controller.ModeRemote,
				Cols:       []string{"id", "age"},
				PageItems:  []entity.Row{{"id": 11.0, "age": 41.0}},
				SortKey:    "age",
				SortDir:    entity.SortDesc,
				Total:      11,
				TotalPages: 2,
				CurPage:    2,
				StartIndex: 10,
			},
			contains: []string{"age v", "41", "11-11 of 11, page 2/2 (server mode)"},
		},
		{
			name: "empty page",
			view: controller.View{
				Mode:       controller.ModeLocal,
				Cols:       []string{"id"},
				TotalPages: 1,
				CurPage:    1,
			},
			contains: []string{"id", "0-0 of 0, page 1/1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			require.NoError(t, printView(&out, tc.view))

			for _, s := range tc.contains {
				assert.Contains(t, out.String(), s)
			}

			for _, s := range tc.notContain {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}
