// Package services holds the ERP's business logic. Each service depends on the
// narrow repository interfaces it needs so it can be tested with fakes.
package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/events"
)

// changeNotifier publishes row changes after a successful mutation. A failed
// publish is logged and never fails the mutation itself.
type changeNotifier struct {
	publisher events.Publisher
	logger    zerolog.Logger
}

func newChangeNotifier(publisher events.Publisher, logger zerolog.Logger) changeNotifier {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return changeNotifier{publisher: publisher, logger: logger}
}

func (n changeNotifier) notify(ctx context.Context, table string, changeType enums.ChangeType, record any) {
	n.notifyKey(ctx, table, changeType, "", record)
}

func (n changeNotifier) notifyKey(ctx context.Context, table string, changeType enums.ChangeType, key string, record any) {
	change, err := events.NewChange(table, string(changeType), record)
	if err != nil {
		n.logger.Error().Err(err).Str("table", table).Msg("Failed to encode change event")
		return
	}
	change.Key = key
	if err := n.publisher.Publish(ctx, change); err != nil {
		n.logger.Warn().Err(err).Str("table", table).Str("type", string(changeType)).Msg("Failed to publish change event")
	}
}
