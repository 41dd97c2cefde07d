package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
	buyerUC "github.com/fastygo/buyerleads/usecase/buyer"
	transferUC "github.com/fastygo/buyerleads/usecase/transfer"
)

type TransferHandler struct {
	baseHandler
	uc          *transferUC.UseCase
	maxFileSize int
}

func NewTransferHandler(uc *transferUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, maxFileSize int) *TransferHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 << 20
	}
	return &TransferHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		maxFileSize: maxFileSize,
	}
}

// @Summary Export buyers
// @Tags transfer
// @Produce text/csv
// @Router /api/v1/export/buyers [get]
func (h *TransferHandler) Export(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	query, err := buyerUC.ParseListQuery(queryValues(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	format := strings.ToLower(string(ctx.QueryArgs().Peek("format")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	file, err := h.uc.Export(stdCtx, principal, query, format)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondFile(ctx, file.Name, file.ContentType, file.Body)
}

// @Summary Import buyers from a CSV or XLSX upload
// @Tags transfer
// @Accept multipart/form-data
// @Router /api/v1/import/buyers [post]
func (h *TransferHandler) Import(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		h.invalidPayload(ctx, "No file provided")
		return
	}
	if header.Size > int64(h.maxFileSize) {
		h.invalidPayload(ctx, "File is too large")
		return
	}
	body, err := header.Open()
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInvalid, "File could not be read", err))
		return
	}
	defer body.Close()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Import(stdCtx, principal, transferUC.ImportFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Download the rejected rows of an import
// @Tags transfer
// @Produce text/csv
// @Router /api/v1/import/reports/{id}/errors [get]
func (h *TransferHandler) ReportErrors(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	file, err := h.uc.ReportErrorsCSV(stdCtx, principal, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondFile(ctx, file.Name, file.ContentType, file.Body)
}
