package data

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/krancour/bbdata/sdk/internal/restmachinery"
	"github.com/pkg/errors"
)

type restAccessor struct {
	*restmachinery.BaseClient
}

// NewRESTAccessor returns an Accessor that reads from the data API of the
// Buildbot master at apiAddress. An empty username means anonymous access.
func NewRESTAccessor(
	apiAddress string,
	username string,
	password string,
	allowInsecure bool,
) Accessor {
	return &restAccessor{
		BaseClient: restmachinery.NewBaseClient(
			apiAddress,
			username,
			password,
			allowInsecure,
		),
	}
}

// NewTokenRESTAccessor returns an Accessor that reads from the data API of the
// Buildbot master at apiAddress, presenting apiToken as a bearer token.
func NewTokenRESTAccessor(
	apiAddress string,
	apiToken string,
	allowInsecure bool,
) Accessor {
	baseClient := restmachinery.NewBaseClient(apiAddress, "", "", allowInsecure)
	baseClient.APIToken = apiToken
	return &restAccessor{BaseClient: baseClient}
}

func (r *restAccessor) Get(
	ctx context.Context,
	endpoint string,
	query Query,
	restArg string,
) (RawList, error) {
	body := map[string]json.RawMessage{}
	if err := r.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        endpoint,
			AuthHeaders: r.AuthHeaders(),
			QueryParams: query.Params(),
			SuccessCode: http.StatusOK,
			RespObj:     &body,
		},
	); err != nil {
		return RawList{}, err
	}
	rawList := RawList{}
	if rawRecords, ok := body[restArg]; ok {
		if err := json.Unmarshal(rawRecords, &rawList.Records); err != nil {
			return RawList{}, errors.Wrapf(
				err,
				"error unmarshaling %q from %s response",
				restArg,
				endpoint,
			)
		}
	}
	if rawMeta, ok := body["meta"]; ok {
		if err := json.Unmarshal(rawMeta, &rawList.Meta); err != nil {
			return RawList{}, errors.Wrapf(
				err,
				"error unmarshaling metadata from %s response",
				endpoint,
			)
		}
	}
	if rawList.Records == nil {
		rawList.Records = []json.RawMessage{}
	}
	return rawList, nil
}
