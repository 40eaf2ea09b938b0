package http

import (
	"errors"
	"net/http"

	applog "expensedash/internal/log"
	"expensedash/internal/services"
	"expensedash/internal/sheets"
)

// handleCreateExpense validates and persists one submission. Input errors
// are 422 with the offending field; a store failure is 502 when the remote
// could not be reached and 500 otherwise.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.countSubmission(false)
		BadRequestError(err.Error()).Write(w)
		return
	}

	sub, err := ParseSubmission(p)
	if err == nil {
		var res services.SubmitResult
		res, err = s.deps.Records.Submit(ctx, sub)
		if err == nil {
			s.countSubmission(true)
			NewJSONResponse().
				Status(http.StatusCreated).
				Data(res).
				Write(w)
			return
		}
	}
	s.countSubmission(false)

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		logger.InfoContext(ctx, "Submission rejected",
			applog.FieldOperation, applog.OpSubmit,
			"field", ve.Field,
			applog.FieldError, ve.Err)
		FieldError(ve.Field, ve.Error()).Write(w)
		return
	}

	logger.ErrorContext(ctx, "Failed to persist submission",
		applog.FieldOperation, applog.OpSubmit,
		applog.FieldFailure, sheets.KindOf(err).String(),
		applog.FieldError, err)
	if sheets.IsTransport(err) {
		ErrorResponse(http.StatusBadGateway, CodeRemoteFailed, "The remote store could not be reached").Write(w)
		return
	}
	ErrorResponse(http.StatusInternalServerError, CodePersistFailed, "The expense could not be saved").Write(w)
}
