package data

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestQueryParams(t *testing.T) {
	testCases := []struct {
		name     string
		query    Query
		expected url.Values
	}{
		{
			name:     "zero value",
			query:    Query{},
			expected: url.Values{},
		},
		{
			name: "everything",
			query: Query{
				Limit:      10,
				Offset:     20,
				Order:      []string{"-number", "buildid"},
				Fields:     []string{"buildid"},
				Properties: []string{"*"},
				Filters: map[string]string{
					"number__gt": "3",
					"complete":   "true",
				},
			},
			expected: url.Values{
				"limit":      []string{"10"},
				"offset":     []string{"20"},
				"order":      []string{"-number", "buildid"},
				"field":      []string{"buildid"},
				"property":   []string{"*"},
				"number__gt": []string{"3"},
				"complete":   []string{"true"},
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, testCase.query.Params())
		})
	}
}

func TestQueryNext(t *testing.T) {
	query := Query{Limit: 20}
	next := query.Next(20)
	require.Equal(t, 0, query.Offset)
	require.Equal(t, 20, next.Offset)
	require.Equal(t, 20, next.Limit)
	require.Equal(t, 40, next.Next(20).Offset)
}

func TestGetterDecodeError(t *testing.T) {
	accessor := &recordingAccessor{
		rawList: RawList{
			Records: rawRecords(testBuildJSON, `{"buildid": "forty-two"}`),
		},
	}
	_, err := NewGetter(accessor, BuildDescriptor).Get(
		context.Background(),
		"builds",
		Query{},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "builds record 1 from builds")
}

func TestGetterAccessorError(t *testing.T) {
	accessor := &recordingAccessor{err: errors.New("boom")}
	_, err := NewGetter(accessor, StepDescriptor).Get(
		context.Background(),
		"steps",
		Query{},
	)
	require.Error(t, err)
	require.Equal(t, "boom", err.Error())
	require.Equal(t, "steps", accessor.restArg)
}

func TestGetterBindsAccessor(t *testing.T) {
	accessor := &recordingAccessor{
		rawList: RawList{Records: rawRecords(testBuildJSON)},
	}
	builds, err := NewGetter(accessor, BuildDescriptor).Get(
		context.Background(),
		"builds",
		Query{},
	)
	require.NoError(t, err)
	require.Len(t, builds.Items, 1)
	require.Same(t, accessor, builds.Items[0].accessor)
}

func TestRESTAccessorGet(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		assertions func(t *testing.T, rawList RawList, err error)
	}{
		{
			name: "records and meta",
			body: `{"builds": [{"buildid": 1}, {"buildid": 2}], "meta": {"total": 9}}`,
			assertions: func(t *testing.T, rawList RawList, err error) {
				require.NoError(t, err)
				require.Len(t, rawList.Records, 2)
				require.NotNil(t, rawList.Meta.Total)
				require.Equal(t, int64(9), *rawList.Meta.Total)
				require.Equal(t, int64(7), rawList.Meta.RemainingItemCount(0, 2))
			},
		},
		{
			name: "missing collection",
			body: `{"meta": {}}`,
			assertions: func(t *testing.T, rawList RawList, err error) {
				require.NoError(t, err)
				require.NotNil(t, rawList.Records)
				require.Empty(t, rawList.Records)
				require.Nil(t, rawList.Meta.Total)
			},
		},
		{
			name: "malformed collection",
			body: `{"builds": {"buildid": 1}}`,
			assertions: func(t *testing.T, _ RawList, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), `"builds"`)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server, accessor := newFakeMaster(
				t,
				func(router *mux.Router) {
					router.HandleFunc(
						"/builds",
						func(w http.ResponseWriter, r *http.Request) {
							w.WriteHeader(http.StatusOK)
							_, err := w.Write([]byte(testCase.body))
							require.NoError(t, err)
						},
					).Methods(http.MethodGet)
				},
			)
			defer server.Close()
			rawList, err := accessor.Get(context.Background(), "builds", Query{}, "builds")
			testCase.assertions(t, rawList, err)
		})
	}
}

func TestRESTAccessorRecordsAreUntouched(t *testing.T) {
	server, accessor := newFakeMaster(
		t,
		func(router *mux.Router) {
			router.HandleFunc(
				"/builds/42/steps",
				func(w http.ResponseWriter, r *http.Request) {
					writeCollection(t, w, "steps", testStepJSON)
				},
			).Methods(http.MethodGet)
		},
	)
	defer server.Close()
	rawList, err := accessor.Get(
		context.Background(),
		"builds/42/steps",
		Query{},
		"steps",
	)
	require.NoError(t, err)
	require.Len(t, rawList.Records, 1)
	require.JSONEq(t, testStepJSON, string(rawList.Records[0]))
}

func TestRESTAccessorCredentials(t *testing.T) {
	testCases := []struct {
		name                  string
		newAccessor           func(apiAddress string) Accessor
		expectedAuthorization string
	}{
		{
			name: "anonymous",
			newAccessor: func(apiAddress string) Accessor {
				return NewRESTAccessor(apiAddress, "", "", testClientAllowInsecure)
			},
			expectedAuthorization: "",
		},
		{
			name: "basic",
			newAccessor: func(apiAddress string) Accessor {
				return NewRESTAccessor(
					apiAddress,
					"tony",
					"stark",
					testClientAllowInsecure,
				)
			},
			expectedAuthorization: "Basic dG9ueTpzdGFyaw==",
		},
		{
			name: "api token",
			newAccessor: func(apiAddress string) Accessor {
				return NewTokenRESTAccessor(
					apiAddress,
					"s3cr3t",
					testClientAllowInsecure,
				)
			},
			expectedAuthorization: "Bearer s3cr3t",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var authorization string
			server, _ := newFakeMaster(
				t,
				func(router *mux.Router) {
					router.HandleFunc(
						"/builds",
						func(w http.ResponseWriter, r *http.Request) {
							authorization = r.Header.Get("Authorization")
							writeCollection(t, w, "builds")
						},
					).Methods(http.MethodGet)
				},
			)
			defer server.Close()
			_, err := testCase.newAccessor(server.URL).Get(
				context.Background(),
				"builds",
				Query{},
				"builds",
			)
			require.NoError(t, err)
			require.Equal(t, testCase.expectedAuthorization, authorization)
		})
	}
}
