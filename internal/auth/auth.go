package auth

import (
	"sort"
	"sync"
)

// Operator is a Telegram user allowed to request insights.
type Operator struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

type Repository interface {
	LoadAll() ([]Operator, error)
	SaveAll(ops []Operator) error
}

// Service is the operator allowlist. The admin is always allowed.
type Service struct {
	mu      sync.RWMutex
	repo    Repository
	adminID int64
	allowed map[int64]Operator
}

// NewService merges persisted operators with the IDs given in configuration.
func NewService(repo Repository, adminID int64, initial []int64) (*Service, error) {
	s := &Service{repo: repo, adminID: adminID, allowed: make(map[int64]Operator)}
	if repo != nil {
		ops, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			s.allowed[op.ID] = op
		}
	}
	for _, id := range initial {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = Operator{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

func (s *Service) AdminID() int64 { return s.adminID }

func (s *Service) IsAllowed(userID int64) bool {
	if s.IsAdmin(userID) {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) Allow(op Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[op.ID] = op
	return s.persistLocked()
}

func (s *Service) Revoke(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.allowed, userID)
	return s.persistLocked()
}

// List returns operators ordered by ID.
func (s *Service) List() []Operator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Operator, 0, len(s.allowed))
	for _, op := range s.allowed {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) persistLocked() error {
	if s.repo == nil {
		return nil
	}
	out := make([]Operator, 0, len(s.allowed))
	for _, op := range s.allowed {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return s.repo.SaveAll(out)
}
