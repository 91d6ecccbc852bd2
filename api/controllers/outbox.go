package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

var deadLetterLimits = validators.IntRange{Default: 50, Min: 1, Max: 500}

// DeadLetterLister reads outbox rows the publisher gave up on.
type DeadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

type deadLetterDTO struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Reason        string          `json:"reason"`
	Error         string          `json:"error,omitempty"`
	AttemptCount  int             `json:"attempt_count"`
	FailedAt      time.Time       `json:"failed_at"`
	Payload       json.RawMessage `json:"payload"`
}

// AdminDeadLetters lists the newest dead-lettered outbox events so an operator
// can see which order notifications never reached Pub/Sub.
func AdminDeadLetters(store DeadLetterLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dead letter store unavailable"))
			return
		}
		limit, err := validators.QueryInt(r, "limit", deadLetterLimits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := store.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters"))
			return
		}
		out := make([]deadLetterDTO, 0, len(rows))
		for _, row := range rows {
			dto := deadLetterDTO{
				EventID:       row.EventID.String(),
				EventType:     string(row.EventType),
				AggregateType: string(row.AggregateType),
				AggregateID:   row.AggregateID.String(),
				Reason:        string(row.ErrorReason),
				AttemptCount:  row.AttemptCount,
				FailedAt:      row.FailedAt,
				Payload:       row.Payload,
			}
			if row.ErrorMessage != nil {
				dto.Error = *row.ErrorMessage
			}
			out = append(out, dto)
		}
		responses.WriteSuccess(w, out)
	}
}
