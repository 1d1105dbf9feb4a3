package restmachinery

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/krancour/bbdata/sdk/meta"
	"github.com/pkg/errors"
)

// BaseClient provides "API machinery" used by all the specialized clients
// that talk to a Buildbot master.
type BaseClient struct {
	// APIAddress is the web root of the Buildbot master, e.g.
	// https://buildbot.example.com
	APIAddress string
	// Username and Password, when Username is non-empty, are sent using HTTP
	// basic auth.
	Username string
	Password string
	// APIToken, when non-empty and no Username is set, is sent as a bearer
	// token. This is useful when the master sits behind an authenticating
	// proxy.
	APIToken   string
	HTTPClient *http.Client
}

// NewBaseClient returns a BaseClient whose HTTP client optionally skips TLS
// verification.
func NewBaseClient(
	apiAddress string,
	username string,
	password string,
	allowInsecure bool,
) *BaseClient {
	return &BaseClient{
		APIAddress: strings.TrimSuffix(apiAddress, "/"),
		Username:   username,
		Password:   password,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: allowInsecure, // nolint: gosec
				},
			},
		},
	}
}

func (b *BaseClient) BasicAuthHeaders(
	username string,
	password string,
) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf(
			"Basic %s",
			base64.StdEncoding.EncodeToString(
				[]byte(fmt.Sprintf("%s:%s", username, password)),
			),
		),
	}
}

func (b *BaseClient) BearerTokenAuthHeaders() map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", b.APIToken),
	}
}

// AuthHeaders returns whichever auth headers the client's credentials call
// for. Anonymous access yields nil.
func (b *BaseClient) AuthHeaders() map[string]string {
	switch {
	case b.Username != "":
		return b.BasicAuthHeaders(b.Username, b.Password)
	case b.APIToken != "":
		return b.BearerTokenAuthHeaders()
	}
	return nil
}

func (b *BaseClient) ExecuteRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if req.RespObj != nil {
		respBodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "error reading response body")
		}
		if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
			return errors.Wrap(err, "error unmarshaling response body")
		}
	}
	return nil
}

func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequestWithContext(
		ctx,
		req.Method,
		fmt.Sprintf(
			"%s/%s/%s",
			b.APIAddress,
			meta.APIPathPrefix,
			strings.TrimPrefix(req.Path, "/"),
		),
		reqBodyReader,
	)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	if len(req.QueryParams) > 0 {
		r.URL.RawQuery = req.QueryParams.Encode()
	}
	r.Header.Set("Accept", "application/json")
	for k, v := range req.AuthHeaders {
		r.Header.Add(k, v)
	}
	for k, v := range req.Headers {
		r.Header.Add(k, v)
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "error invoking API")
	}

	if (req.SuccessCode == 0 && resp.StatusCode != http.StatusOK) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		defer resp.Body.Close()
		return nil, b.errorFromResponse(resp)
	}
	return resp, nil
}

// errorFromResponse uses the response code to decide what sort of error is
// described by the response body. Buildbot describes errors as
// {"error": "..."}, but proxies in front of it may not, in which case the raw
// body becomes the reason.
func (b *BaseClient) errorFromResponse(resp *http.Response) error {
	var apiErr error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr = &meta.ErrAuthentication{}
	case http.StatusForbidden:
		apiErr = &meta.ErrAuthorization{}
	case http.StatusBadRequest:
		apiErr = &meta.ErrBadRequest{}
	case http.StatusNotFound:
		apiErr = &meta.ErrNotFound{}
	case http.StatusConflict:
		apiErr = &meta.ErrConflict{}
	case http.StatusInternalServerError:
		apiErr = &meta.ErrInternalServer{}
	case http.StatusNotImplemented:
		apiErr = &meta.ErrNotSupported{}
	default:
		return errors.Errorf("received %d from API server", resp.StatusCode)
	}
	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading error response body")
	}
	if err = json.Unmarshal(bodyBytes, apiErr); err != nil {
		reason := strings.TrimSpace(string(bodyBytes))
		switch e := apiErr.(type) {
		case *meta.ErrAuthentication:
			e.Reason = reason
		case *meta.ErrAuthorization:
			e.Reason = reason
		case *meta.ErrBadRequest:
			e.Reason = reason
		case *meta.ErrNotFound:
			e.Reason = reason
		case *meta.ErrConflict:
			e.Reason = reason
		case *meta.ErrInternalServer:
			e.Reason = reason
		case *meta.ErrNotSupported:
			e.Details = reason
		}
	}
	return apiErr
}
