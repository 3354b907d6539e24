package cart

import "sync"

// Store holds one cart per owner (an authenticated user id or a guest cart
// token). Each cart is owned exclusively by its holder; the mutex only guards
// the map against concurrent requests from different owners.
type Store struct {
	mu    sync.Mutex
	carts map[string]Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]Cart)}
}

// Get returns a copy of the owner's cart; an unknown owner has an empty cart.
func (s *Store) Get(owner string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.carts[owner]
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Add applies the engine's Add to the owner's cart and returns the result.
func (s *Store) Add(owner string, it Item) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Add(s.carts[owner], it)
	s.carts[owner] = next
	return next
}

// Remove drops the full line matching id from the owner's cart.
func (s *Store) Remove(owner, id string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Remove(s.carts[owner], id)
	s.carts[owner] = next
	return next
}

// Clear empties the owner's cart (after checkout).
func (s *Store) Clear(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner)
}
