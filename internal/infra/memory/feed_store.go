package memory

import (
	"sync"

	"dilemma-survey-service/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(dilemmaName string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[dilemmaName]; ok {
		return feed
	}
	feed := app.NewFeed(dilemmaName)
	s.feeds[dilemmaName] = feed
	return feed
}

func (s *FeedStore) Get(dilemmaName string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[dilemmaName]
	return feed, ok
}

func (s *FeedStore) DeleteIfEmpty(dilemmaName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[dilemmaName]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(s.feeds, dilemmaName)
	}
}
