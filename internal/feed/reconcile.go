package feed

// Reconcile subscribes the push handlers that keep the cache in step with
// server events. Counter events patch cached posts in place, aggregate events
// replace the cached aggregate, and new-resource events invalidate the
// collection. The returned func removes every subscription.
func (s *Service) Reconcile(src EventSource) (stop func()) {
	unsubs := []func(){
		src.Subscribe(EventNewPost, s.onNewPost),
		src.Subscribe(EventPostLiked, s.onPostLiked),
		src.Subscribe(EventPostReposted, s.onPostReposted),
		src.Subscribe(EventUserFollowed, s.onUserFollowed),
		src.Subscribe(EventTrendingUpdated, s.onTrendingUpdated),
		src.Subscribe(EventStatsUpdated, s.onStatsUpdated),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *Service) dropEvent(ev Event, err error) {
	s.logger.Warn("dropping malformed push event", "type", string(ev.Type), "error", err)
}

func (s *Service) onNewPost(ev Event) {
	if _, err := DecodePayload[NewPostPayload](ev); err != nil {
		s.dropEvent(ev, err)
		return
	}
	s.cache.Invalidate(PostsKey)
}

func (s *Service) onPostLiked(ev Event) {
	p, err := DecodePayload[PostLikedPayload](ev)
	if err == nil && p.PostID == "" {
		err = errMissing("postId")
	}
	if err != nil {
		s.dropEvent(ev, err)
		return
	}
	n := s.applyPostPatch(p.Patch())
	s.logger.Debug("applied push patch", "type", string(ev.Type), "post_id", p.PostID, "entries", n)
}

func (s *Service) onPostReposted(ev Event) {
	p, err := DecodePayload[PostRepostedPayload](ev)
	if err == nil && p.PostID == "" {
		err = errMissing("postId")
	}
	if err != nil {
		s.dropEvent(ev, err)
		return
	}
	n := s.applyPostPatch(p.Patch())
	s.logger.Debug("applied push patch", "type", string(ev.Type), "post_id", p.PostID, "entries", n)
}

func (s *Service) onUserFollowed(ev Event) {
	if _, err := DecodePayload[UserFollowedPayload](ev); err != nil {
		s.dropEvent(ev, err)
		return
	}
	s.cache.Invalidate(UserProfileKey)
	s.cache.Invalidate(CurrentUserKey)
}

func (s *Service) onTrendingUpdated(ev Event) {
	p, err := DecodePayload[TrendingUpdatedPayload](ev)
	if err == nil && p.TrendingItems == nil {
		err = errMissing("trendingItems")
	}
	if err != nil {
		s.dropEvent(ev, err)
		return
	}
	s.cache.Set(TrendingKey, p.TrendingItems)
}

func (s *Service) onStatsUpdated(ev Event) {
	p, err := DecodePayload[StatsUpdatedPayload](ev)
	if err == nil && p.Stats == nil {
		err = errMissing("stats")
	}
	if err != nil {
		s.dropEvent(ev, err)
		return
	}
	s.cache.Set(StatsKey, p.Stats)
}
