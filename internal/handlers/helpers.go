package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gfconnector/billing-console/internal/services"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
	"github.com/gfconnector/billing-console/pkg/logger"
)

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := statusOf(err)
	if status >= xhttp.StatusInternalServerError {
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
	}
	writeError(ctx, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrNotConfirmable),
		errors.Is(err, services.ErrNotRefundable),
		errors.Is(err, services.ErrNoDocument):
		return xhttp.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return xhttp.StatusUnauthorized
	case errors.Is(err, services.ErrConfirmationInProgress),
		errors.Is(err, services.ErrDuplicateUser):
		return xhttp.StatusConflict
	}
	return xhttp.StatusInternalServerError
}

func writeFile(ctx *xhttp.RequestCtx, contentType, filename string, body []byte) {
	ctx.Response.Header.Set("Content-Type", contentType)
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response.SetStatusCode(xhttp.StatusOK)
	ctx.Response.SetBodyRaw(body)
}

func queryParam(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryValues(ctx *xhttp.RequestCtx) url.Values {
	v := url.Values{}
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		v.Add(string(key), string(value))
	})
	return v
}

// queryInt returns def when the parameter is missing or not a number.
func queryInt(ctx *xhttp.RequestCtx, key string, def int) int {
	n, err := strconv.Atoi(queryParam(ctx, key))
	if err != nil {
		return def
	}
	return n
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}
