package publisher

import (
	"context"

	"github.com/nandanugg/station-gate/module/core/domain"
)

type AccessPublisher interface {
	PublishAccess(ctx context.Context, event *domain.AccessEvent) error
}
