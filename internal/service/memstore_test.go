package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL store.  WithinTx holds a
// global lock for the whole unit of work and restores a snapshot when fn
// fails, which gives the services the same all-or-nothing behaviour as a
// serializable transaction.
type memDB struct {
	mu sync.Mutex

	nextID        uint64
	clock         time.Time
	units         map[uint64]model.Unit
	residents     map[uint64]model.Resident
	accounts      map[uint64]model.Account
	reservations  map[uint64]model.Reservation
	notifications map[uint64]model.Notification
	receipts      map[[2]uint64]bool
	messages      map[uint64]model.DirectMessage
	visitors      map[uint64]model.Visitor
	fines         map[uint64]model.Fine
	staff         map[uint64]model.Staff
}

type memTxKey struct{}

func newMemDB() *memDB {
	return &memDB{
		clock:         time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		units:         map[uint64]model.Unit{},
		residents:     map[uint64]model.Resident{},
		accounts:      map[uint64]model.Account{},
		reservations:  map[uint64]model.Reservation{},
		notifications: map[uint64]model.Notification{},
		receipts:      map[[2]uint64]bool{},
		messages:      map[uint64]model.DirectMessage{},
		visitors:      map[uint64]model.Visitor{},
		fines:         map[uint64]model.Fine{},
		staff:         map[uint64]model.Staff{},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

// do runs f under the lock unless ctx is already inside WithinTx.
func (db *memDB) do(ctx context.Context, f func()) {
	if ctx.Value(memTxKey{}) != nil {
		f()
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	f()
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

// tick returns a strictly increasing timestamp so orderings are stable.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	return db.clock
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		nextID:        db.nextID,
		clock:         db.clock,
		units:         cloneMap(db.units),
		residents:     cloneMap(db.residents),
		accounts:      cloneMap(db.accounts),
		reservations:  cloneMap(db.reservations),
		notifications: cloneMap(db.notifications),
		receipts:      cloneMap(db.receipts),
		messages:      cloneMap(db.messages),
		visitors:      cloneMap(db.visitors),
		fines:         cloneMap(db.fines),
		staff:         cloneMap(db.staff),
	}
}

func (db *memDB) restore(s *memDB) {
	db.nextID, db.clock = s.nextID, s.clock
	db.units, db.residents, db.accounts = s.units, s.residents, s.accounts
	db.reservations, db.notifications, db.receipts = s.reservations, s.notifications, s.receipts
	db.messages, db.visitors, db.fines, db.staff = s.messages, s.visitors, s.fines, s.staff
}

// ---- fixtures ----

func (db *memDB) addUnit(number string) model.Unit {
	u := model.Unit{ID: db.id(), Number: number, Block: "A", Type: "apartment"}
	db.units[u.ID] = u
	return u
}

func (db *memDB) addResident(name string, unitID uint64) model.Resident {
	r := model.Resident{ID: db.id(), Name: name, TaxID: name + "-tax", Phone: "555", Email: name + "@x", Kind: model.ResidentOwner, UnitID: unitID}
	db.residents[r.ID] = r
	return r
}

func (db *memDB) addAccount(login string, role model.Role, residentID *uint64, active bool) model.Account {
	a := model.Account{ID: db.id(), Login: login, Email: login + "@x", PasswordHash: "hash:secret123", Role: role, Active: active, ResidentID: residentID}
	db.accounts[a.ID] = a
	return a
}

// residentActor creates a unit, a resident living there and their active
// account, returning the resolved actor.
func (db *memDB) residentActor(name string) *model.Actor {
	u := db.addUnit(name + "-unit")
	r := db.addResident(name, u.ID)
	a := db.addAccount(name, model.RoleResident, &r.ID, true)
	return model.NewActor(a, &u.ID)
}

func (db *memDB) adminActor(login string) *model.Actor {
	a := db.addAccount(login, model.RoleAdministrator, nil, true)
	return model.NewActor(a, nil)
}

// ---- reservation store ----

type memReservations struct{ db *memDB }

func (s memReservations) LockSlot(context.Context, string, model.Date) error { return nil }

func (s memReservations) FindOverlapping(ctx context.Context, area string, date model.Date, start, end model.TimeOfDay) (out *model.Reservation, err error) {
	s.db.do(ctx, func() {
		var hits []model.Reservation
		for _, r := range s.db.reservations {
			if r.Area == area && r.Date.Equal(date) && r.Status.Active() && r.Overlaps(start, end) {
				hits = append(hits, r)
			}
		}
		if len(hits) > 0 {
			sort.Slice(hits, func(i, j int) bool { return hits[i].Start < hits[j].Start })
			out = &hits[0]
		}
	})
	return out, nil
}

func (s memReservations) Create(ctx context.Context, r *model.Reservation) error {
	s.db.do(ctx, func() {
		r.ID = s.db.id()
		r.CreatedAt = s.db.tick()
		s.db.reservations[r.ID] = *r
	})
	return nil
}

func (s memReservations) GetByID(ctx context.Context, id uint64) (r model.Reservation, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if r, ok = s.db.reservations[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return r, err
}

func (s memReservations) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.GetByID(ctx, id)
}

func (s memReservations) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) (err error) {
	s.db.do(ctx, func() {
		r, ok := s.db.reservations[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		r.Status = status
		s.db.reservations[id] = r
	})
	return err
}

func (s memReservations) List(ctx context.Context, residentID *uint64) (out []model.Reservation, err error) {
	s.db.do(ctx, func() {
		out = []model.Reservation{}
		for _, r := range s.db.reservations {
			if residentID == nil || r.ResidentID == *residentID {
				out = append(out, r)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c > 0
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s memReservations) BusyIntervals(ctx context.Context, area string, date model.Date) (out []model.Interval, err error) {
	s.db.do(ctx, func() {
		out = []model.Interval{}
		for _, r := range s.db.reservations {
			if r.Area == area && r.Date.Equal(date) && r.Status.Active() {
				out = append(out, model.Interval{ReservationID: r.ID, Start: r.Start, End: r.End, Status: r.Status})
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// ---- resident store ----

type memResidents struct{ db *memDB }

func (s memResidents) List(ctx context.Context, unitID *uint64) (out []model.Resident, err error) {
	s.db.do(ctx, func() {
		out = []model.Resident{}
		for _, r := range s.db.residents {
			if unitID == nil || r.UnitID == *unitID {
				out = append(out, r)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memResidents) GetByID(ctx context.Context, id uint64) (r model.Resident, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if r, ok = s.db.residents[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return r, err
}

func (s memResidents) Exists(ctx context.Context, id uint64) (ok bool, err error) {
	s.db.do(ctx, func() { _, ok = s.db.residents[id] })
	return ok, nil
}

func (s memResidents) Create(ctx context.Context, r *model.Resident) (err error) {
	s.db.do(ctx, func() {
		for _, o := range s.db.residents {
			if o.TaxID == r.TaxID {
				err = &repository.UniqueViolationError{Field: "tax_id"}
				return
			}
		}
		r.ID = s.db.id()
		s.db.residents[r.ID] = *r
	})
	return err
}

func (s memResidents) Update(ctx context.Context, r model.Resident) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.residents[r.ID]; !ok {
			err = repository.ErrNotFound
			return
		}
		s.db.residents[r.ID] = r
	})
	return err
}

func (s memResidents) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.residents[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.db.residents, id)
	})
	return err
}

// ---- notification store ----

type memNotifications struct {
	db *memDB
	// raceOnInsert simulates a concurrent lister creating the receipt
	// first: InsertReceipt then reports a duplicate.
	raceOnInsert map[uint64]bool
}

func visibleTo(n model.Notification, residentID *uint64) bool {
	return residentID == nil || n.VisibleTo(*residentID)
}

func (s *memNotifications) Create(ctx context.Context, n *model.Notification) error {
	s.db.do(ctx, func() {
		n.ID = s.db.id()
		n.SentAt = s.db.tick()
		s.db.notifications[n.ID] = *n
	})
	return nil
}

func (s *memNotifications) GetByID(ctx context.Context, id uint64) (n model.Notification, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if n, ok = s.db.notifications[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return n, err
}

func (s *memNotifications) ListWithReadState(ctx context.Context, accountID uint64, residentID *uint64) (out []model.NotificationItem, err error) {
	s.db.do(ctx, func() {
		out = []model.NotificationItem{}
		for _, n := range s.db.notifications {
			if visibleTo(n, residentID) {
				out = append(out, model.NotificationItem{Notification: n, Read: s.db.receipts[[2]uint64{n.ID, accountID}]})
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (s *memNotifications) CountUnread(ctx context.Context, accountID uint64, residentID *uint64) (n int, err error) {
	s.db.do(ctx, func() {
		for _, x := range s.db.notifications {
			if visibleTo(x, residentID) && !s.db.receipts[[2]uint64{x.ID, accountID}] {
				n++
			}
		}
	})
	return n, nil
}

func (s *memNotifications) InsertReceipt(ctx context.Context, notificationID, accountID uint64) (created bool, err error) {
	s.db.do(ctx, func() {
		key := [2]uint64{notificationID, accountID}
		if s.raceOnInsert[notificationID] {
			s.db.receipts[key] = true
		}
		if s.db.receipts[key] {
			return
		}
		s.db.receipts[key] = true
		created = true
	})
	return created, nil
}

func (s *memNotifications) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.notifications[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		for k := range s.db.receipts {
			if k[0] == id {
				delete(s.db.receipts, k)
			}
		}
		delete(s.db.notifications, id)
	})
	return err
}

// ---- message store ----

type memMessages struct{ db *memDB }

func (s memMessages) Create(ctx context.Context, m *model.DirectMessage) error {
	s.db.do(ctx, func() {
		m.ID = s.db.id()
		m.SentAt = s.db.tick()
		s.db.messages[m.ID] = *m
	})
	return nil
}

func (s memMessages) ListInvolving(ctx context.Context, accountID uint64) (out []model.DirectMessage, err error) {
	s.db.do(ctx, func() {
		out = []model.DirectMessage{}
		for _, m := range s.db.messages {
			if m.SenderID == accountID || m.RecipientID == accountID {
				out = append(out, m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (s memMessages) Thread(ctx context.Context, a, b uint64) (out []model.DirectMessage, err error) {
	s.db.do(ctx, func() {
		out = []model.DirectMessage{}
		for _, m := range s.db.messages {
			if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
				out = append(out, m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (s memMessages) MarkRead(ctx context.Context, recipientID, senderID uint64) (n int64, err error) {
	s.db.do(ctx, func() {
		now := s.db.tick()
		for id, m := range s.db.messages {
			if m.SenderID == senderID && m.RecipientID == recipientID && m.ReadAt == nil {
				at := now
				m.ReadAt = &at
				s.db.messages[id] = m
				n++
			}
		}
	})
	return n, nil
}

func (s memMessages) CountUnread(ctx context.Context, accountID uint64) (n int, err error) {
	s.db.do(ctx, func() {
		for _, m := range s.db.messages {
			if m.RecipientID == accountID && m.ReadAt == nil {
				n++
			}
		}
	})
	return n, nil
}

// ---- account store ----

type memAccounts struct{ db *memDB }

func (s memAccounts) Create(ctx context.Context, a *model.Account) (err error) {
	s.db.do(ctx, func() {
		for _, o := range s.db.accounts {
			if o.Login == a.Login {
				err = &repository.UniqueViolationError{Field: "login"}
				return
			}
			if o.Email == a.Email {
				err = &repository.UniqueViolationError{Field: "email"}
				return
			}
		}
		a.ID = s.db.id()
		s.db.accounts[a.ID] = *a
	})
	return err
}

func (s memAccounts) GetByID(ctx context.Context, id uint64) (a model.Account, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if a, ok = s.db.accounts[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return a, err
}

func (s memAccounts) GetSummary(ctx context.Context, id uint64) (model.AccountSummary, error) {
	a, err := s.GetByID(ctx, id)
	return a.Summary(), err
}

func (s memAccounts) GetSummaries(ctx context.Context, ids []uint64) (map[uint64]model.AccountSummary, error) {
	out := map[uint64]model.AccountSummary{}
	s.db.do(ctx, func() {
		for _, id := range ids {
			if a, ok := s.db.accounts[id]; ok {
				out[id] = a.Summary()
			}
		}
	})
	return out, nil
}

func (s memAccounts) List(ctx context.Context) (out []model.Account, err error) {
	s.db.do(ctx, func() {
		for _, a := range s.db.accounts {
			out = append(out, a)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func (s memAccounts) ListSummaries(ctx context.Context, activeOnly bool, role *model.Role) (out []model.AccountSummary, err error) {
	s.db.do(ctx, func() {
		out = []model.AccountSummary{}
		for _, a := range s.db.accounts {
			if (activeOnly && !a.Active) || (role != nil && a.Role != *role) {
				continue
			}
			out = append(out, a.Summary())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func (s memAccounts) SetActive(ctx context.Context, id uint64, active bool) (err error) {
	s.db.do(ctx, func() {
		a, ok := s.db.accounts[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		a.Active = active
		s.db.accounts[id] = a
	})
	return err
}

func (s memAccounts) SetPassword(ctx context.Context, id uint64, hash string) (err error) {
	s.db.do(ctx, func() {
		a, ok := s.db.accounts[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		a.PasswordHash = hash
		s.db.accounts[id] = a
	})
	return err
}

// ---- unit store ----

type memUnits struct{ db *memDB }

func (s memUnits) List(ctx context.Context) (out []model.Unit, err error) {
	s.db.do(ctx, func() {
		out = []model.Unit{}
		for _, u := range s.db.units {
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s memUnits) GetByID(ctx context.Context, id uint64) (u model.Unit, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if u, ok = s.db.units[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return u, err
}

func (s memUnits) Create(ctx context.Context, u *model.Unit) (err error) {
	s.db.do(ctx, func() {
		for _, o := range s.db.units {
			if o.Number == u.Number {
				err = &repository.UniqueViolationError{Field: "number"}
				return
			}
		}
		u.ID = s.db.id()
		s.db.units[u.ID] = *u
	})
	return err
}

func (s memUnits) Update(ctx context.Context, u model.Unit) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.units[u.ID]; !ok {
			err = repository.ErrNotFound
			return
		}
		s.db.units[u.ID] = u
	})
	return err
}

func (s memUnits) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.units[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.db.units, id)
	})
	return err
}

func (s memUnits) HasResidents(ctx context.Context, id uint64) (busy bool, err error) {
	s.db.do(ctx, func() {
		for _, r := range s.db.residents {
			if r.UnitID == id {
				busy = true
				return
			}
		}
	})
	return busy, nil
}

// ---- visitor store ----

type memVisitors struct{ db *memDB }

func (s memVisitors) List(ctx context.Context, unitID *uint64) (out []model.Visitor, err error) {
	s.db.do(ctx, func() {
		out = []model.Visitor{}
		for _, v := range s.db.visitors {
			if unitID == nil || v.UnitID == *unitID {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memVisitors) GetByID(ctx context.Context, id uint64) (v model.Visitor, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if v, ok = s.db.visitors[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return v, err
}

func (s memVisitors) Create(ctx context.Context, v *model.Visitor) error {
	s.db.do(ctx, func() {
		v.ID = s.db.id()
		s.db.visitors[v.ID] = *v
	})
	return nil
}

func (s memVisitors) MarkDeparted(ctx context.Context, id uint64, at time.Time) (err error) {
	s.db.do(ctx, func() {
		v, ok := s.db.visitors[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		if v.DepartedAt == nil {
			v.DepartedAt = &at
		}
		s.db.visitors[id] = v
	})
	return err
}

func (s memVisitors) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.visitors[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.db.visitors, id)
	})
	return err
}

// ---- fine store ----

type memFines struct{ db *memDB }

func (s memFines) List(ctx context.Context, unitID *uint64) (out []model.Fine, err error) {
	s.db.do(ctx, func() {
		out = []model.Fine{}
		for _, f := range s.db.fines {
			if unitID == nil || f.UnitID == *unitID {
				out = append(out, f)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memFines) GetByID(ctx context.Context, id uint64) (f model.Fine, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if f, ok = s.db.fines[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return f, err
}

func (s memFines) Create(ctx context.Context, f *model.Fine) error {
	s.db.do(ctx, func() {
		f.ID = s.db.id()
		f.IssuedAt = s.db.tick()
		s.db.fines[f.ID] = *f
	})
	return nil
}

func (s memFines) SetPaid(ctx context.Context, id uint64, paid bool) (err error) {
	s.db.do(ctx, func() {
		f, ok := s.db.fines[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		f.Paid = paid
		s.db.fines[id] = f
	})
	return err
}

func (s memFines) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.fines[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.db.fines, id)
	})
	return err
}

// ---- staff store ----

type memStaff struct{ db *memDB }

func (s memStaff) List(ctx context.Context) (out []model.Staff, err error) {
	s.db.do(ctx, func() {
		out = []model.Staff{}
		for _, st := range s.db.staff {
			out = append(out, st)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memStaff) GetByID(ctx context.Context, id uint64) (st model.Staff, err error) {
	s.db.do(ctx, func() {
		var ok bool
		if st, ok = s.db.staff[id]; !ok {
			err = repository.ErrNotFound
		}
	})
	return st, err
}

func (s memStaff) Create(ctx context.Context, st *model.Staff) error {
	s.db.do(ctx, func() {
		st.ID = s.db.id()
		s.db.staff[st.ID] = *st
	})
	return nil
}

func (s memStaff) Update(ctx context.Context, st model.Staff) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.staff[st.ID]; !ok {
			err = repository.ErrNotFound
			return
		}
		s.db.staff[st.ID] = st
	})
	return err
}

func (s memStaff) Delete(ctx context.Context, id uint64) (err error) {
	s.db.do(ctx, func() {
		if _, ok := s.db.staff[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.db.staff, id)
	})
	return err
}

// ---- events ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, string(ev.Type))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
