package services

import (
	"log/slog"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

// ServiceManager bundles the session core services for the boundary layer.
type ServiceManager interface {
	Session() SessionService
	Response() ResponseService
	Violation() ViolationService
	Recovery() RecoveryService
}

type serviceManager struct {
	session   SessionService
	response  ResponseService
	violation ViolationService
	recovery  RecoveryService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) ServiceManager {
	clock := NewClock()

	return &serviceManager{
		session:   NewSessionService(repo, clock, publisher, logger, validator),
		response:  NewResponseService(repo, clock, logger, validator),
		violation: NewViolationService(repo, clock, publisher, logger, validator),
		recovery:  NewRecoveryService(repo, clock, cacheService, logger, validator),
	}
}

func (m *serviceManager) Session() SessionService {
	return m.session
}

func (m *serviceManager) Response() ResponseService {
	return m.response
}

func (m *serviceManager) Violation() ViolationService {
	return m.violation
}

func (m *serviceManager) Recovery() RecoveryService {
	return m.recovery
}
