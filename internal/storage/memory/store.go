// Package memory is an in-process implementation of the sales repositories.
// It backs the dev mode of the API server and the atomicity tests.
package memory

import (
	"maps"
	"sync"
	"time"

	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
)

// Step names a write inside an order transaction for failure injection.
type Step string

const (
	StepLockCart    Step = "lock_cart"
	StepInsertOrder Step = "insert_order"
	StepInsertLines Step = "insert_lines"
	StepClearCart   Step = "clear_cart"
)

type user struct {
	companyID int64
	initial   string
}

type store struct {
	companyID int64
	initial   string
}

type product struct {
	companyID int64
	sku       string
	name      string
	unit      string
}

type stockKey struct{ storeID, productID int64 }

// state is everything a transaction may change. It is cloned on begin and
// swapped in on commit.
type state struct {
	cart         map[int64]cart.Line
	orders       map[int64]order.Order
	orderLines   map[int64][]order.Line
	orderNumbers map[string]int64
	nextID       int64
}

func (s *state) clone() *state {
	lines := make(map[int64][]order.Line, len(s.orderLines))
	for id, ls := range s.orderLines {
		lines[id] = append([]order.Line(nil), ls...)
	}
	return &state{
		cart:         maps.Clone(s.cart),
		orders:       maps.Clone(s.orders),
		orderLines:   lines,
		orderNumbers: maps.Clone(s.orderNumbers),
		nextID:       s.nextID,
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store holds catalog data, carts and orders in memory. The zero value is not
// usable; call New.
type Store struct {
	mu       sync.Mutex
	state    *state
	users    map[int64]user
	stores   map[int64]store
	products map[int64]product
	stock    map[stockKey]int
	apiKeys  map[string]auth.APIKeyInfo
	failures map[Step]error
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		state: &state{
			cart:         make(map[int64]cart.Line),
			orders:       make(map[int64]order.Order),
			orderLines:   make(map[int64][]order.Line),
			orderNumbers: make(map[string]int64),
		},
		users:    make(map[int64]user),
		stores:   make(map[int64]store),
		products: make(map[int64]product),
		stock:    make(map[stockKey]int),
		apiKeys:  make(map[string]auth.APIKeyInfo),
		failures: make(map[Step]error),
		now:      time.Now,
	}
}

// AddUser registers a user of companyID.
func (s *Store) AddUser(id, companyID int64, initial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user{companyID: companyID, initial: initial}
}

// AddStore registers a store of companyID.
func (s *Store) AddStore(id, companyID int64, initial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[id] = store{companyID: companyID, initial: initial}
}

// AddProduct registers a catalog product of companyID.
func (s *Store) AddProduct(id, companyID int64, sku, name, unit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = product{companyID: companyID, sku: sku, name: name, unit: unit}
}

// SetStock sets the on-hand quantity of a product at a store.
func (s *Store) SetStock(storeID, productID int64, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[stockKey{storeID, productID}] = qty
}

// AddAPIKey registers an API key by hash. CompanyID is taken from the user.
func (s *Store) AddAPIKey(info auth.APIKeyInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info.CompanyID = s.users[info.UserID].companyID
	s.apiKeys[info.KeyHash] = info
}

// FailAt makes the next transaction fail at step with err.
func (s *Store) FailAt(step Step, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[step] = err
}

// NewSeeded returns a Store with one company, user, two stores and a few
// products, for running the server without a database.
func NewSeeded() *Store {
	s := New()
	s.AddUser(1, 1, "DV")
	s.AddStore(1, 1, "MAIN")
	s.AddStore(2, 1, "KIOSK")
	for i, p := range []product{
		{sku: "SKU-COFFEE", name: "Coffee", unit: "cup"},
		{sku: "SKU-BAGEL", name: "Bagel", unit: "pcs"},
		{sku: "SKU-WATER", name: "Mineral Water 600ml", unit: "btl"},
	} {
		id := int64(i + 1)
		s.AddProduct(id, 1, p.sku, p.name, p.unit)
		s.SetStock(1, id, 50)
	}
	return s
}
