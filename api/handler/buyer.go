package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/api/transport"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/validation"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
	buyerUC "github.com/fastygo/buyerleads/usecase/buyer"
)

var errMissingToken = domain.NewValidationError([]domain.FieldError{{
	Path:    "updatedAt",
	Message: "updatedAt is required for concurrency control",
}})

type BuyerHandler struct {
	baseHandler
	uc *buyerUC.UseCase
}

func NewBuyerHandler(uc *buyerUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BuyerHandler {
	return &BuyerHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List buyers
// @Tags buyers
// @Router /api/v1/buyers [get]
func (h *BuyerHandler) List(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	query, err := buyerUC.ParseListQuery(queryValues(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.List(stdCtx, principal, query)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

// @Summary Create buyer
// @Tags buyers
// @Router /api/v1/buyers [post]
func (h *BuyerHandler) Create(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	body, ok := h.decodeObject(ctx)
	if !ok {
		return
	}
	fields, err := validation.ValidateCreate(body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, principal, fields)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [get]
func (h *BuyerHandler) Get(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	buyer, err := h.uc.Get(stdCtx, principal, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, buyer)
}

// Update serves both PUT and PATCH: the body lists the fields to change plus
// the updatedAt the client last read.
//
// @Summary Update buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [put]
func (h *BuyerHandler) Update(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	body, ok := h.decodeObject(ctx)
	if !ok {
		return
	}

	rawToken, _ := body["updatedAt"].(string)
	if rawToken == "" {
		h.respondError(ctx, errMissingToken)
		return
	}
	token, err := domain.ParseTimestamp(rawToken)
	if err != nil {
		h.respondError(ctx, errMissingToken)
		return
	}
	for _, key := range transport.ReadOnlyBuyerKeys {
		delete(body, key)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, principal, pathParam(ctx, "id"), body, &token)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [delete]
func (h *BuyerHandler) Delete(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, principal, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"success": true})
}

// @Summary Buyer change history
// @Tags buyers
// @Router /api/v1/buyers/{id}/history [get]
func (h *BuyerHandler) History(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.uc.History(stdCtx, principal, pathParam(ctx, "id"), limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}

// decodeObject reads a JSON object keeping numbers exact.
func (h baseHandler) decodeObject(ctx *fasthttp.RequestCtx) (validation.Input, bool) {
	dec := json.NewDecoder(bytes.NewReader(ctx.PostBody()))
	dec.UseNumber()
	var body validation.Input
	if err := dec.Decode(&body); err != nil || body == nil {
		h.invalidPayload(ctx, "invalid payload")
		return nil, false
	}
	return body, true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func queryValues(ctx *fasthttp.RequestCtx) url.Values {
	values := url.Values{}
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}
