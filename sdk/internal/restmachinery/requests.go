package restmachinery

import "net/url"

// OutboundRequest models a request to the Buildbot data API.
type OutboundRequest struct {
	Method string
	// Path is relative to the API root, e.g. "builds/42/steps".
	Path        string
	QueryParams url.Values
	AuthHeaders map[string]string
	Headers     map[string]string
	ReqBodyObj  interface{}
	SuccessCode int
	RespObj     interface{}
}
