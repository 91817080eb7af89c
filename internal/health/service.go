// Package health tracks the state of the files, database and publisher the
// wall depends on.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventHealthUpdated is broadcast when an item changes status.
const EventHealthUpdated = "health:updated"

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// Service manages the health state of all tracked items.
// All state is in-memory and resets on application restart.
type Service struct {
	items       map[HealthCategory]map[string]*HealthItem
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}
	return s
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// RegisterItem starts tracking an item as OK. Registering an existing item
// only updates its name.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.items[category]
	if !ok {
		return
	}
	if item, exists := items[id]; exists {
		item.Name = name
		return
	}
	items[id] = &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}
}

// UnregisterItem stops tracking an item.
func (s *Service) UnregisterItem(category HealthCategory, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[category], id)
}

// SetError marks an item as failing.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning marks an item as degraded.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus marks an item as OK.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

// Set records status for an item.
func (s *Service) Set(category HealthCategory, id string, status HealthStatus, message string) {
	s.setStatus(category, id, status, message)
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[category][id]
	if !exists {
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	event := s.logger.Info()
	if status != StatusOK {
		event = s.logger.Warn()
	}
	event.
		Str("category", string(category)).
		Str("id", id).
		Str("name", item.Name).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(EventHealthUpdated, *item); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to broadcast health update")
		}
	}
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &HealthResponse{
		Dataset:   s.itemsToSlice(CategoryDataset),
		Database:  s.itemsToSlice(CategoryDatabase),
		Publisher: s.itemsToSlice(CategoryPublisher),
	}
}

// GetByCategory returns all items in a specific category.
func (s *Service) GetByCategory(category HealthCategory) []HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsToSlice(category)
}

// GetItem returns a single item by category and ID.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		cp := *item
		return &cp
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}
	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}
		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}
	return summary
}

// IsHealthy reports whether an item is registered and OK.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[category][id]
	return exists && item.Status == StatusOK
}

func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	result := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
