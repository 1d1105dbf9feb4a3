package main

import (
	"testing"

	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/meta"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	total := int64(5)
	testCases := []struct {
		name       string
		items      []int
		fetchErr   error
		assertions func(t *testing.T, fetches int, printed int, err error)
	}{
		{
			name:  "nothing found",
			items: []int{},
			assertions: func(t *testing.T, fetches int, printed int, err error) {
				require.NoError(t, err)
				require.Equal(t, 1, fetches)
				require.Equal(t, 0, printed)
			},
		},
		{
			// Test output is never a terminal, so only one page is shown.
			name:  "more remain",
			items: []int{1, 2},
			assertions: func(t *testing.T, fetches int, printed int, err error) {
				require.NoError(t, err)
				require.Equal(t, 1, fetches)
				require.Equal(t, 1, printed)
			},
		},
		{
			name:     "fetch error",
			fetchErr: errors.New("boom"),
			assertions: func(t *testing.T, fetches int, printed int, err error) {
				require.Error(t, err)
				require.Equal(t, 0, printed)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var fetches, printed int
			err := page(
				data.Query{Limit: 2},
				func(query data.Query) (*data.Collection[int], error) {
					fetches++
					if testCase.fetchErr != nil {
						return nil, testCase.fetchErr
					}
					return &data.Collection[int]{
						ListMeta: meta.ListMeta{Total: &total},
						Items:    testCase.items,
					}, nil
				},
				func(*data.Collection[int]) error {
					printed++
					return nil
				},
				"widgets",
			)
			testCase.assertions(t, fetches, printed, err)
		})
	}
}
