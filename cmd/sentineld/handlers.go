package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		srv.logger.Warn("sentineld-http-internal-error", "err", err)
	}
	c.JSON(code, GenericStatus{Status: "error", Daemon: "sentineld", Message: errorMessage})
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "sentineld"})
}

type evaluateRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// HandleEvaluate accepts message text for background evaluation. Always
// responds 202: the caller never learns the outcome, and delivery of the
// message itself must not wait on analysis.
func (srv *Server) HandleEvaluate(c echo.Context) error {
	var req evaluateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, GenericError{
			Error:   "InvalidRequest",
			Message: fmt.Sprintf("%s", err),
		})
	}
	if req.UserID == "" {
		return c.JSON(400, GenericError{
			Error:   "InvalidRequest",
			Message: "user_id is required",
		})
	}
	srv.engine.Evaluate(req.Text, req.UserID)
	return c.JSON(202, GenericStatus{Status: "accepted", Daemon: "sentineld"})
}

type evaluateImageRequest struct {
	UserID string `json:"user_id"`
	// Data is the base64-encoded image bytes.
	Data string `json:"data"`
}

func (srv *Server) HandleEvaluateImage(c echo.Context) error {
	var req evaluateImageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, GenericError{
			Error:   "InvalidRequest",
			Message: fmt.Sprintf("%s", err),
		})
	}
	if req.UserID == "" {
		return c.JSON(400, GenericError{
			Error:   "InvalidRequest",
			Message: "user_id is required",
		})
	}
	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return c.JSON(400, GenericError{
			Error:   "InvalidRequest",
			Message: "data must be base64-encoded",
		})
	}
	srv.engine.EvaluateImage(raw, req.UserID)
	return c.JSON(202, GenericStatus{Status: "accepted", Daemon: "sentineld"})
}

const (
	countersCacheName = "counters"
	countersCacheTTL  = 30 * time.Second
)

func (srv *Server) HandleGetCounters(c echo.Context) error {
	ctx := c.Request().Context()

	uid := c.Param("id")
	if cached, err := srv.cache.Get(ctx, countersCacheName, uid); err == nil && cached != "" {
		return c.JSONBlob(200, []byte(cached))
	}

	doc, err := srv.store.GetDocument(ctx, uid)
	if err != nil {
		return c.JSON(500, GenericError{
			Error:   "InternalError",
			Message: fmt.Sprintf("%s", err),
		})
	}
	if doc == nil {
		return c.JSON(404, GenericError{
			Error:   "UserNotFound",
			Message: "no safety record for user",
		})
	}

	if raw, err := json.Marshal(doc); err == nil {
		if err := srv.cache.Set(ctx, countersCacheName, uid, string(raw), countersCacheTTL); err != nil {
			srv.logger.Warn("caching counter document", "err", err, "user", uid)
		}
	}
	return c.JSON(200, doc)
}
