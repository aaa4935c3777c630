// api/audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogAccess(ctx context.Context, log AccessLog) error
	LogFactChange(ctx context.Context, change FactChange) error
	QueryAccessLogs(ctx context.Context, from, to time.Time, uid int, check string) ([]AccessLog, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogAccess(ctx context.Context, log AccessLog) error {
	return s.repo.LogAccess(ctx, log)
}

func (s *service) LogFactChange(ctx context.Context, change FactChange) error {
	return s.repo.LogFactChange(ctx, change)
}

func (s *service) QueryAccessLogs(ctx context.Context, from, to time.Time, uid int, check string) ([]AccessLog, error) {
	return s.repo.QueryAccessLogs(ctx, from, to, uid, check)
}
