package decorator

import (
	"context"
	"time"

	"github.com/architeacher/filterspec/pkg/logger"
)

type queryLoggingDecorator[Q Query, R Result] struct {
	base   QueryHandler[Q, R]
	logger logger.Logger
}

func (d queryLoggingDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	start := time.Now()
	log := d.logger.WithContext(ctx).With().
		Str("query", generateActionName(query)).
		Logger()

	log.Debug().Msg("executing query")

	defer func() {
		if err != nil {
			log.Error().Err(err).Dur("duration", time.Since(start)).Msg("failed to execute query")

			return
		}

		log.Debug().Dur("duration", time.Since(start)).Msg("query executed successfully")
	}()

	return d.base.Execute(ctx, query)
}
