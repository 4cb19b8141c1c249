package core

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/nandanugg/station-gate/module/core/internal/handler/http"
	"github.com/nandanugg/station-gate/module/core/internal/handler/subscriber"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database/file"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database/memory"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/station-gate/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/station-gate/module/core/service"
)

// Deps are the external connections the module runs on. A nil DB selects the
// in-memory grant store.
type Deps struct {
	DB              *sql.DB
	AMQP            *amqp.Connection
	MQTT            mqtt.Client
	MemoryStoreSize int
}

type Module struct {
	AccessSvc  *service.AccessService
	handler    *handler.AccessHandler
	subscriber *subscriber.PositionSubscriber
}

func Build(ctx context.Context, deps Deps, settings service.Settings) (*Module, error) {
	if err := service.ValidateWaypoints(settings.Waypoints); err != nil {
		return nil, fmt.Errorf("waypoints: %w", err)
	}

	var grantRepo database.GrantRepository
	if deps.DB != nil {
		pg := postgres.NewGrantRepo(deps.DB)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate grants: %w", err)
		}
		grantRepo = pg
	} else {
		mem, err := memory.NewGrantRepo(deps.MemoryStoreSize)
		if err != nil {
			return nil, fmt.Errorf("memory grant store: %w", err)
		}
		grantRepo = mem
	}

	accessPub, err := rabbitmq.NewAccessPublisher(deps.AMQP)
	if err != nil {
		return nil, fmt.Errorf("access publisher: %w", err)
	}

	accessSvc := service.NewAccessService(grantRepo, accessPub, settings)

	h := handler.NewAccessHandler(accessSvc)
	sub := subscriber.NewPositionSubscriber(deps.MQTT, accessSvc)

	return &Module{
		AccessSvc:  accessSvc,
		handler:    h,
		subscriber: sub,
	}, nil
}

// BuildLocal returns an access service for a single device-local evaluation,
// with grants persisted to a JSON file at path and no event publishing.
func BuildLocal(path string, settings service.Settings) (*service.AccessService, error) {
	if err := service.ValidateWaypoints(settings.Waypoints); err != nil {
		return nil, fmt.Errorf("waypoints: %w", err)
	}
	return service.NewAccessService(file.NewGrantRepo(path), nil, settings), nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}
