package feed

import "context"

// AutoRefresh refetches trending every TrendingRefreshInterval and stats every
// StatsRefreshInterval until ctx ends. Refresh failures are logged and the
// previous values stay cached.
func (s *Service) AutoRefresh(ctx context.Context) error {
	nextTrending := s.clock.After(TrendingRefreshInterval)
	nextStats := s.clock.After(StatsRefreshInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-nextTrending:
			s.cache.Invalidate(TrendingKey)
			if _, err := s.Trending(ctx); err != nil {
				s.logger.Warn("refreshing trending", "error", err)
			}
			nextTrending = s.clock.After(TrendingRefreshInterval)
		case <-nextStats:
			s.cache.Invalidate(StatsKey)
			if _, err := s.Stats(ctx); err != nil {
				s.logger.Warn("refreshing stats", "error", err)
			}
			nextStats = s.clock.After(StatsRefreshInterval)
		}
	}
}
