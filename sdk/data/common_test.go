package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/krancour/bbdata/sdk/meta"
	"github.com/stretchr/testify/require"
)

const testClientAllowInsecure = true

const testBuildJSON = `{
	"buildid": 42,
	"number": 7,
	"builderid": 3,
	"buildrequestid": 11,
	"workerid": 2,
	"masterid": 1,
	"started_at": 1600000000,
	"complete_at": 1600000100,
	"complete": true,
	"state_string": "finished",
	"results": 0,
	"properties": {
		"branch": ["main", "Build"],
		"buildnumber": [7, "Build"]
	}
}`

const testRunningBuildJSON = `{
	"buildid": 42,
	"number": 7,
	"builderid": 3,
	"buildrequestid": null,
	"workerid": 2,
	"masterid": 1,
	"started_at": 1600000000,
	"complete_at": null,
	"complete": false,
	"state_string": "building",
	"results": null,
	"properties": {}
}`

const testStepJSON = `{
	"stepid": 501,
	"number": 0,
	"name": "compile",
	"buildid": 42,
	"started_at": 1600000001,
	"complete_at": 1600000050,
	"complete": true,
	"state_string": "compiled",
	"results": 2,
	"urls": [{"name": "report", "url": "http://example.com/report"}],
	"hidden": false
}`

const testChangeJSON = `{
	"changeid": 9,
	"author": "Tony Stark <tony@starkindustries.com>",
	"committer": null,
	"comments": "Fix the repulsors",
	"branch": "main",
	"revision": "0123456789abcdef0123",
	"revlink": null,
	"when_timestamp": 1599999999,
	"category": null,
	"repository": "https://github.com/stark/mark42",
	"project": "mark42",
	"codebase": "",
	"files": ["repulsor.go"],
	"properties": {}
}`

// recordingAccessor is an Accessor that records what it was asked for and
// answers with a canned list.
type recordingAccessor struct {
	endpoint string
	query    Query
	restArg  string
	calls    int
	rawList  RawList
	err      error
}

func (r *recordingAccessor) Get(
	_ context.Context,
	endpoint string,
	query Query,
	restArg string,
) (RawList, error) {
	r.calls++
	r.endpoint = endpoint
	r.query = query
	r.restArg = restArg
	return r.rawList, r.err
}

func rawRecords(records ...string) []json.RawMessage {
	rawMessages := make([]json.RawMessage, len(records))
	for i, record := range records {
		rawMessages[i] = json.RawMessage(record)
	}
	return rawMessages
}

func requireBuildRecord(t *testing.T, rawJSON string) BuildRecord {
	record := BuildRecord{}
	require.NoError(t, json.Unmarshal([]byte(rawJSON), &record))
	return record
}

// newFakeMaster starts an HTTP server that routes like a Buildbot master's
// data API and returns an Accessor pointed at it.
func newFakeMaster(
	t *testing.T,
	register func(router *mux.Router),
) (*httptest.Server, Accessor) {
	router := mux.NewRouter()
	register(router.PathPrefix("/api/v2").Subrouter())
	router.NotFoundHandler = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"error": "Invalid path: %s"}`, r.URL.Path)
		},
	)
	server := httptest.NewServer(router)
	return server, NewRESTAccessor(server.URL, "", "", testClientAllowInsecure)
}

func writeCollection(
	t *testing.T,
	w http.ResponseWriter,
	restArg string,
	records ...string,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	body := map[string]interface{}{
		restArg: rawRecords(records...),
		"meta":  map[string]int{"total": len(records)},
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func metaWithTotal(total int64) meta.ListMeta {
	return meta.ListMeta{Total: &total}
}
