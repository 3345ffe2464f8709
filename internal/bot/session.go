package bot

import (
	"sync"

	"github.com/shopspring/decimal"
)

// session is the step of a multi-message conversation a user is in.
// Each step is its own type; handlers switch over the concrete type.
type session interface {
	isSession()
}

// tripDraft collects /newtrip answers until the trip is created.
type tripDraft struct {
	Name    string
	Home    string
	Target  string
	Rate    decimal.Decimal
	Initial decimal.Decimal
}

type (
	awaitTripName       struct{}
	awaitHomeCurrency   struct{ draft tripDraft }
	awaitTargetCurrency struct{ draft tripDraft }
	// awaitTripRate waits for a typed rate or a press on the suggested rate.
	awaitTripRate struct {
		draft     tripDraft
		suggested decimal.Decimal
	}
	awaitHomeInitial struct{ draft tripDraft }
	awaitBudgetLimit struct{ draft tripDraft }

	awaitExpenseCurrency struct {
		tripID int64
		amount decimal.Decimal
	}
	// awaitExpenseCategory holds an expense whose home amount is already known.
	awaitExpenseCategory struct {
		tripID int64
		amount decimal.Decimal
		code   string
		home   decimal.Decimal
	}

	awaitCurrencyCode    struct{ tripID int64 }
	awaitCurrencyBalance struct {
		tripID int64
		code   string
	}
	awaitCurrencyRate struct {
		tripID    int64
		code      string
		balance   decimal.Decimal
		suggested decimal.Decimal
	}
	awaitCurrencySetBalance struct {
		currencyID int64
		code       string
	}
)

func (awaitTripName) isSession()           {}
func (awaitHomeCurrency) isSession()       {}
func (awaitTargetCurrency) isSession()     {}
func (awaitTripRate) isSession()           {}
func (awaitHomeInitial) isSession()        {}
func (awaitBudgetLimit) isSession()        {}
func (awaitExpenseCurrency) isSession()    {}
func (awaitExpenseCategory) isSession()    {}
func (awaitCurrencyCode) isSession()       {}
func (awaitCurrencyBalance) isSession()    {}
func (awaitCurrencyRate) isSession()       {}
func (awaitCurrencySetBalance) isSession() {}

// sessionStore holds the current conversation step per user.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]session)}
}

func (s *sessionStore) get(userID int64) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

func (s *sessionStore) set(userID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

// clear drops the user's session and reports whether one existed.
func (s *sessionStore) clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[userID]
	delete(s.m, userID)
	return ok
}
