package main

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	json "github.com/goccy/go-json"
)

// bundledCatalog is the catalog shipped next to the function binary.
const bundledCatalog = "item.json"

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

var catalogs = newCatalogCache(30 * time.Minute)

type optimizeRequest struct {
	Catalog json.RawMessage `json:"catalog"`
	Exclude []string        `json:"exclude"`
	MinAD   *int            `json:"minAd"`
	MinAP   *int            `json:"minAp"`
	MinASP  *int            `json:"minAsp"`
	SlotCap *int            `json:"slotCap"`
}

func (r *optimizeRequest) config() Config {
	cfg := DefaultConfig()
	cfg.Exclude = r.Exclude
	for dst, v := range map[*int]*int{&cfg.MinAD: r.MinAD, &cfg.MinAP: r.MinAP, &cfg.MinASP: r.MinASP, &cfg.SlotCap: r.SlotCap} {
		if v != nil {
			*dst = *v
		}
	}
	return cfg
}

// handler serves optimize requests from a Lambda Function URL. An infeasible
// build is a 200 with "feasible": false.
func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req optimizeRequest
	if body != "" {
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return errResp(http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
	}
	cfg := req.config()
	if err := cfg.validate(); err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}

	var (
		cat *Catalog
		err error
	)
	if len(req.Catalog) > 0 {
		cat, err = catalogs.parse(req.Catalog)
	} else {
		cat, err = catalogs.load(bundledCatalog)
	}
	if err != nil {
		return errResp(statusFor(err), err.Error())
	}

	plan, err := planBuild(ctx, cat, cfg, nil)
	if err != nil {
		return errResp(statusFor(err), err.Error())
	}
	respJSON, err := plan.MarshalJSON()
	if err != nil {
		return errResp(http.StatusInternalServerError, err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrCatalogParse), errors.Is(err, ErrMalformedCatalog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSolverTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
