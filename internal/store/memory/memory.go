// Package memory is an in-process implementation of the ledger store.
//
// WithinTx works on a copy of the state and swaps it in only when the
// callback succeeds, so failed mutations leave no trace.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

type budgetKey struct {
	tripID     int64
	categoryID int
}

type state struct {
	trips      map[int64]models.Trip
	users      map[int64]models.User
	currencies map[int64]models.TripCurrency
	categories []models.Category
	expenses   map[int64]models.Expense
	budgets    map[budgetKey]models.CategoryBudget
	nextID     int64
}

func (st *state) clone() *state {
	users := make(map[int64]models.User, len(st.users))
	for id, u := range st.users {
		if u.ActiveTripID != nil {
			tripID := *u.ActiveTripID
			u.ActiveTripID = &tripID
		}
		users[id] = u
	}
	return &state{
		trips:      maps.Clone(st.trips),
		users:      users,
		currencies: maps.Clone(st.currencies),
		categories: st.categories,
		expenses:   maps.Clone(st.expenses),
		budgets:    maps.Clone(st.budgets),
		nextID:     st.nextID,
	}
}

func (st *state) id() int64 {
	st.nextID++
	return st.nextID
}

// Store keeps the whole ledger in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store seeded with the default category catalog.
func New() *Store {
	cats := make([]models.Category, len(models.DefaultCategories))
	for i, c := range models.DefaultCategories {
		c.ID = i + 1
		cats[i] = c
	}
	return &Store{
		state: &state{
			trips:      map[int64]models.Trip{},
			users:      map[int64]models.User{},
			currencies: map[int64]models.TripCurrency{},
			categories: cats,
			expenses:   map[int64]models.Expense{},
			budgets:    map[budgetKey]models.CategoryBudget{},
		},
		now: time.Now,
	}
}

// WithinTx runs fn against a private copy of the state.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, view{s: s, tx: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Trips() store.TripStore          { return view{s: s}.Trips() }
func (s *Store) Users() store.UserStore          { return view{s: s}.Users() }
func (s *Store) Currencies() store.CurrencyStore { return view{s: s}.Currencies() }
func (s *Store) Categories() store.CategoryStore { return view{s: s}.Categories() }
func (s *Store) Expenses() store.ExpenseStore    { return view{s: s}.Expenses() }
func (s *Store) Budgets() store.BudgetStore      { return view{s: s}.Budgets() }

// view reads the committed state under the store lock, or the working copy
// of a running transaction, whose lock is already held.
type view struct {
	s  *Store
	tx *state
}

func (v view) acquire() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.s.mu.Lock()
	return v.s.state, v.s.mu.Unlock
}

func (v view) Trips() store.TripStore          { return trips{v} }
func (v view) Users() store.UserStore          { return users{v} }
func (v view) Currencies() store.CurrencyStore { return currencies{v} }
func (v view) Categories() store.CategoryStore { return categories{v} }
func (v view) Expenses() store.ExpenseStore    { return expenses{v} }
func (v view) Budgets() store.BudgetStore      { return budgets{v} }

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
}

type trips struct{ view }

func (r trips) Create(_ context.Context, trip *models.Trip) error {
	st, done := r.acquire()
	defer done()

	trip.ID = st.id()
	trip.CreatedAt = r.s.now()
	stored := *trip
	stored.Currencies = nil
	st.trips[trip.ID] = stored
	return nil
}

func (r trips) GetByID(_ context.Context, id int64) (*models.Trip, error) {
	st, done := r.acquire()
	defer done()

	trip, ok := st.trips[id]
	if !ok {
		return nil, notFound("trip", id)
	}
	return &trip, nil
}

func (r trips) ListByUser(_ context.Context, userID int64) ([]models.Trip, error) {
	st, done := r.acquire()
	defer done()

	var out []models.Trip
	for _, trip := range st.trips {
		if trip.UserID == userID {
			out = append(out, trip)
		}
	}
	slices.SortFunc(out, func(a, b models.Trip) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r trips) UpdateBudget(_ context.Context, id int64, limit, threshold decimal.Decimal) error {
	st, done := r.acquire()
	defer done()

	trip, ok := st.trips[id]
	if !ok {
		return notFound("trip", id)
	}
	trip.BudgetLimit = limit
	trip.NotificationThreshold = threshold
	st.trips[id] = trip
	return nil
}

func (r trips) AdjustBalances(_ context.Context, id int64, homeDelta, targetDelta decimal.Decimal) error {
	st, done := r.acquire()
	defer done()

	trip, ok := st.trips[id]
	if !ok {
		return notFound("trip", id)
	}
	trip.HomeBalance = trip.HomeBalance.Add(homeDelta)
	trip.TargetBalance = trip.TargetBalance.Add(targetDelta)
	st.trips[id] = trip
	return nil
}

func (r trips) Delete(_ context.Context, id int64) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.trips[id]; !ok {
		return notFound("trip", id)
	}
	delete(st.trips, id)
	// Mirrors ON DELETE SET NULL on users.active_trip_id.
	for uid, u := range st.users {
		if u.ActiveTripID != nil && *u.ActiveTripID == id {
			u.ActiveTripID = nil
			st.users[uid] = u
		}
	}
	return nil
}

type users struct{ view }

func (r users) SetActiveTrip(_ context.Context, userID, tripID int64) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.trips[tripID]; !ok {
		return notFound("trip", tripID)
	}
	st.users[userID] = models.User{ID: userID, ActiveTripID: &tripID, UpdatedAt: r.s.now()}
	return nil
}

func (r users) GetActiveTripID(_ context.Context, userID int64) (int64, error) {
	st, done := r.acquire()
	defer done()

	u, ok := st.users[userID]
	if !ok || u.ActiveTripID == nil {
		return 0, notFound("active trip of user", userID)
	}
	return *u.ActiveTripID, nil
}

func (r users) ClearActiveTrip(_ context.Context, tripID int64) error {
	st, done := r.acquire()
	defer done()

	for uid, u := range st.users {
		if u.ActiveTripID != nil && *u.ActiveTripID == tripID {
			u.ActiveTripID = nil
			u.UpdatedAt = r.s.now()
			st.users[uid] = u
		}
	}
	return nil
}

func (r users) ListWithActiveTrip(_ context.Context) ([]models.User, error) {
	st, done := r.acquire()
	defer done()

	var out []models.User
	for _, u := range st.users {
		if u.ActiveTripID != nil {
			tripID := *u.ActiveTripID
			u.ActiveTripID = &tripID
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type currencies struct{ view }

func (r currencies) Create(_ context.Context, currency *models.TripCurrency) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.trips[currency.TripID]; !ok {
		return notFound("trip", currency.TripID)
	}
	for _, c := range st.currencies {
		if c.TripID == currency.TripID && c.Code == currency.Code {
			return fmt.Errorf("currency %s already registered on trip %d", currency.Code, currency.TripID)
		}
	}
	currency.ID = st.id()
	currency.CreatedAt = r.s.now()
	st.currencies[currency.ID] = *currency
	return nil
}

func (r currencies) GetByID(_ context.Context, id int64) (*models.TripCurrency, error) {
	st, done := r.acquire()
	defer done()

	c, ok := st.currencies[id]
	if !ok {
		return nil, notFound("currency", id)
	}
	return &c, nil
}

func (r currencies) GetByCode(_ context.Context, tripID int64, code string) (*models.TripCurrency, error) {
	st, done := r.acquire()
	defer done()

	for _, c := range st.currencies {
		if c.TripID == tripID && c.Code == code {
			return &c, nil
		}
	}
	return nil, notFound("currency", code)
}

func (r currencies) ListByTrip(_ context.Context, tripID int64) ([]models.TripCurrency, error) {
	st, done := r.acquire()
	defer done()

	var out []models.TripCurrency
	for _, c := range st.currencies {
		if c.TripID == tripID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.TripCurrency) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r currencies) SetBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	st, done := r.acquire()
	defer done()

	c, ok := st.currencies[id]
	if !ok {
		return notFound("currency", id)
	}
	c.Balance = balance
	st.currencies[id] = c
	return nil
}

func (r currencies) AdjustBalance(_ context.Context, id int64, delta decimal.Decimal) error {
	st, done := r.acquire()
	defer done()

	c, ok := st.currencies[id]
	if !ok {
		return notFound("currency", id)
	}
	c.Balance = c.Balance.Add(delta)
	st.currencies[id] = c
	return nil
}

func (r currencies) Delete(_ context.Context, id int64) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.currencies[id]; !ok {
		return notFound("currency", id)
	}
	delete(st.currencies, id)
	return nil
}

func (r currencies) DeleteByTrip(_ context.Context, tripID int64) error {
	st, done := r.acquire()
	defer done()

	maps.DeleteFunc(st.currencies, func(_ int64, c models.TripCurrency) bool { return c.TripID == tripID })
	return nil
}

type categories struct{ view }

func (r categories) GetAll(_ context.Context) ([]models.Category, error) {
	st, done := r.acquire()
	defer done()

	return slices.Clone(st.categories), nil
}

func (r categories) GetByID(_ context.Context, id int) (*models.Category, error) {
	st, done := r.acquire()
	defer done()

	return st.category(id)
}

func (st *state) category(id int) (*models.Category, error) {
	for _, c := range st.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, notFound("category", id)
}

type expenses struct{ view }

func (r expenses) Create(_ context.Context, expense *models.Expense) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.trips[expense.TripID]; !ok {
		return notFound("trip", expense.TripID)
	}
	if _, err := st.category(expense.CategoryID); err != nil {
		return err
	}
	expense.ID = st.id()
	expense.CreatedAt = r.s.now()
	stored := *expense
	stored.Category = nil
	st.expenses[expense.ID] = stored
	return nil
}

func (st *state) withCategory(e models.Expense) models.Expense {
	if cat, err := st.category(e.CategoryID); err == nil {
		e.Category = cat
	}
	return e
}

func (r expenses) GetByID(_ context.Context, id int64) (*models.Expense, error) {
	st, done := r.acquire()
	defer done()

	e, ok := st.expenses[id]
	if !ok {
		return nil, notFound("expense", id)
	}
	e = st.withCategory(e)
	return &e, nil
}

func (r expenses) ListByTrip(_ context.Context, tripID int64, categoryID *int) ([]models.Expense, error) {
	st, done := r.acquire()
	defer done()

	var out []models.Expense
	for _, e := range st.expenses {
		if e.TripID != tripID {
			continue
		}
		if categoryID != nil && e.CategoryID != *categoryID {
			continue
		}
		out = append(out, st.withCategory(e))
	}
	slices.SortFunc(out, func(a, b models.Expense) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r expenses) UpdateAmounts(_ context.Context, id int64, amountHome, amountTarget decimal.Decimal, categoryID int) error {
	st, done := r.acquire()
	defer done()

	e, ok := st.expenses[id]
	if !ok {
		return notFound("expense", id)
	}
	if _, err := st.category(categoryID); err != nil {
		return err
	}
	e.AmountHome = amountHome
	e.AmountTarget = amountTarget
	e.CategoryID = categoryID
	st.expenses[id] = e
	return nil
}

func (r expenses) Delete(_ context.Context, id int64) error {
	st, done := r.acquire()
	defer done()

	if _, ok := st.expenses[id]; !ok {
		return notFound("expense", id)
	}
	delete(st.expenses, id)
	return nil
}

func (r expenses) DeleteByTrip(_ context.Context, tripID int64) error {
	st, done := r.acquire()
	defer done()

	maps.DeleteFunc(st.expenses, func(_ int64, e models.Expense) bool { return e.TripID == tripID })
	return nil
}

func (r expenses) CountByCurrency(_ context.Context, tripID int64, code string) (int, error) {
	st, done := r.acquire()
	defer done()

	n := 0
	for _, e := range st.expenses {
		if e.TripID == tripID && e.CurrencyTarget == code {
			n++
		}
	}
	return n, nil
}

func (r expenses) TotalHome(_ context.Context, tripID int64) (decimal.Decimal, error) {
	st, done := r.acquire()
	defer done()

	total := decimal.Zero
	for _, e := range st.expenses {
		if e.TripID == tripID {
			total = total.Add(e.AmountHome)
		}
	}
	return total, nil
}

func (r expenses) TotalsHomeByCategory(_ context.Context, tripID int64) (map[int]decimal.Decimal, error) {
	st, done := r.acquire()
	defer done()

	totals := map[int]decimal.Decimal{}
	for _, e := range st.expenses {
		if e.TripID == tripID {
			totals[e.CategoryID] = totals[e.CategoryID].Add(e.AmountHome)
		}
	}
	return totals, nil
}

type budgets struct{ view }

func (r budgets) Get(_ context.Context, tripID int64, categoryID int) (*models.CategoryBudget, error) {
	st, done := r.acquire()
	defer done()

	b, ok := st.budgets[budgetKey{tripID, categoryID}]
	if !ok {
		return nil, notFound("category budget", categoryID)
	}
	return &b, nil
}

func (st *state) budgetRow(tripID int64, categoryID int, currency string) models.CategoryBudget {
	key := budgetKey{tripID, categoryID}
	b, ok := st.budgets[key]
	if !ok {
		b = models.CategoryBudget{ID: st.id(), TripID: tripID, CategoryID: categoryID, CurrencyCode: currency}
	}
	return b
}

func (r budgets) AddSpent(_ context.Context, tripID int64, categoryID int, delta decimal.Decimal, currency string) error {
	st, done := r.acquire()
	defer done()

	b := st.budgetRow(tripID, categoryID, currency)
	b.SpentAmount = b.SpentAmount.Add(delta)
	st.budgets[budgetKey{tripID, categoryID}] = b
	return nil
}

func (r budgets) SetPlanned(_ context.Context, tripID int64, categoryID int, planned decimal.Decimal, currency string) error {
	st, done := r.acquire()
	defer done()

	b := st.budgetRow(tripID, categoryID, currency)
	b.PlannedAmount = planned
	b.CurrencyCode = currency
	st.budgets[budgetKey{tripID, categoryID}] = b
	return nil
}

func (r budgets) ResetSpent(_ context.Context, tripID int64, totals map[int]decimal.Decimal, currency string) error {
	st, done := r.acquire()
	defer done()

	for key, b := range st.budgets {
		if key.tripID == tripID {
			b.SpentAmount = decimal.Zero
			st.budgets[key] = b
		}
	}
	for categoryID, total := range totals {
		b := st.budgetRow(tripID, categoryID, currency)
		b.SpentAmount = total
		st.budgets[budgetKey{tripID, categoryID}] = b
	}
	return nil
}

func (r budgets) ListByTrip(_ context.Context, tripID int64) ([]models.CategoryBudget, error) {
	st, done := r.acquire()
	defer done()

	var out []models.CategoryBudget
	for key, b := range st.budgets {
		if key.tripID == tripID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.CategoryBudget) int { return cmp.Compare(a.CategoryID, b.CategoryID) })
	return out, nil
}

func (r budgets) DeleteByTrip(_ context.Context, tripID int64) error {
	st, done := r.acquire()
	defer done()

	maps.DeleteFunc(st.budgets, func(key budgetKey, _ models.CategoryBudget) bool { return key.tripID == tripID })
	return nil
}
