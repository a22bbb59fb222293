package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunOverdueSweeper calls CancelOverdue every interval until ctx is done.
func (s *OrderService) RunOverdueSweeper(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("overdue order sweeper started", zap.Duration("interval", interval), zap.Duration("ttl", ttl))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue order sweeper stopped")
			return nil
		case <-ticker.C:
			n, err := s.CancelOverdue(ctx, ttl)
			if err != nil && ctx.Err() == nil {
				s.logger.Error("overdue sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("overdue orders cancelled", zap.Int("count", n))
			}
		}
	}
}
