package decorator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/architeacher/filterspec/pkg/metrics"
)

type queryMetricsDecorator[Q Query, R Result] struct {
	base   QueryHandler[Q, R]
	client metrics.Client
}

func (d queryMetricsDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	start := time.Now()

	actionName := strings.ToLower(generateActionName(query))

	defer func() {
		if d.client == nil {
			return
		}

		d.client.Inc(ctx, fmt.Sprintf("queries.%s.duration_ms", actionName), time.Since(start).Milliseconds())

		if err == nil {
			d.client.Inc(ctx, fmt.Sprintf("queries.%s.success", actionName), 1)
		} else {
			d.client.Inc(ctx, fmt.Sprintf("queries.%s.failure", actionName), 1)
		}
	}()

	return d.base.Execute(ctx, query)
}
