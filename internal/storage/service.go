package storage

import (
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// Service bundles the repositories behind a single dependency for the
// API layer and the background services.
type Service struct {
	db        *DB
	users     repository.UserRepository
	cards     repository.CardRepository
	userCards repository.UserCardRepository
	items     repository.ItemRepository
}

// NewService creates a storage service on top of an open database.
func NewService(db *DB) *Service {
	conn := db.Conn()
	return &Service{
		db:        db,
		users:     repository.NewUserRepository(conn),
		cards:     repository.NewCardRepository(conn),
		userCards: repository.NewUserCardRepository(conn),
		items:     repository.NewItemRepository(conn),
	}
}

// Users returns the user account repository.
func (s *Service) Users() repository.UserRepository { return s.users }

// Cards returns the shared card cache repository.
func (s *Service) Cards() repository.CardRepository { return s.cards }

// UserCards returns the inventory ledger repository.
func (s *Service) UserCards() repository.UserCardRepository { return s.userCards }

// Items returns the folder/deck tree repository.
func (s *Service) Items() repository.ItemRepository { return s.items }

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}
