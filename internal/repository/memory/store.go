// Package memory - хранилище в памяти процесса. Транзакции сериализуются
// одним мьютексом и применяются к копии данных, которая заменяет оригинал
// только при успешном завершении.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
)

type data struct {
	nextID       int64
	classes      map[int64]*model.ClassDefinition
	availability map[int64]*model.AvailabilitySlot
	reschedules  map[int64]*model.RescheduleRecord
	users        map[int64]*model.User
}

func newData() *data {
	return &data{
		classes:      make(map[int64]*model.ClassDefinition),
		availability: make(map[int64]*model.AvailabilitySlot),
		reschedules:  make(map[int64]*model.RescheduleRecord),
		users:        make(map[int64]*model.User),
	}
}

func (d *data) clone() *data {
	cp := newData()
	cp.nextID = d.nextID
	for id, class := range d.classes {
		cp.classes[id] = class.Clone()
	}
	for id, slot := range d.availability {
		s := *slot
		cp.availability[id] = &s
	}
	for id, record := range d.reschedules {
		r := *record
		cp.reschedules[id] = &r
	}
	for id, user := range d.users {
		cp.users[id] = copyUser(user)
	}
	return cp
}

func (d *data) newID() int64 {
	d.nextID++
	return d.nextID
}

type database struct {
	mu   sync.RWMutex
	data *data
}

// Store реализует storage.Store в памяти
type Store struct {
	db *database
	tx *data // не nil внутри транзакции
	// now используется для created_at / updated_at
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{
		db:  &database{data: newData()},
		now: time.Now,
	}
}

// InTx выполняет fn на копии данных и применяет её, только если fn завершилась без ошибки
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	working := s.db.data.clone()
	if err := fn(&Store{db: s.db, tx: working, now: s.now}); err != nil {
		return err
	}

	s.db.data = working
	return nil
}

func (s *Store) read(fn func(d *data)) {
	if s.tx != nil {
		fn(s.tx)
		return
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	fn(s.db.data)
}

func (s *Store) write(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

func overlaps(class *model.ClassDefinition, from, to time.Time) bool {
	return !class.StartDate.After(to) && !class.EndDate.Before(from)
}

func sortClasses(classes []*model.ClassDefinition) {
	sort.Slice(classes, func(i, j int) bool {
		if !classes[i].StartDate.Equal(classes[j].StartDate) {
			return classes[i].StartDate.Before(classes[j].StartDate)
		}
		return classes[i].ID < classes[j].ID
	})
}

// ============ Занятия ============

func (s *Store) GetClass(_ context.Context, id int64) (*model.ClassDefinition, error) {
	var class *model.ClassDefinition
	s.read(func(d *data) {
		if c, ok := d.classes[id]; ok {
			class = c.Clone()
		}
	})
	return class, nil
}

// LockClass внутри транзакции равносилен GetClass: транзакции и так сериализованы
func (s *Store) LockClass(ctx context.Context, id int64) (*model.ClassDefinition, error) {
	return s.GetClass(ctx, id)
}

func (s *Store) listClasses(match func(*model.ClassDefinition) bool) []*model.ClassDefinition {
	var classes []*model.ClassDefinition
	s.read(func(d *data) {
		for _, class := range d.classes {
			if match(class) {
				classes = append(classes, class.Clone())
			}
		}
	})
	sortClasses(classes)
	return classes
}

func (s *Store) ListClassesByStudent(_ context.Context, studentID int64, from, to time.Time) ([]*model.ClassDefinition, error) {
	return s.listClasses(func(c *model.ClassDefinition) bool {
		return c.StudentID == studentID && overlaps(c, from, to)
	}), nil
}

func (s *Store) ListClassesByTeacher(_ context.Context, teacherID int64, from, to time.Time) ([]*model.ClassDefinition, error) {
	return s.listClasses(func(c *model.ClassDefinition) bool {
		return c.TeacherID == teacherID && overlaps(c, from, to)
	}), nil
}

func (s *Store) CreateClass(_ context.Context, class *model.ClassDefinition) error {
	return s.write(func(d *data) error {
		now := s.now()
		class.ID = d.newID()
		class.CreatedAt = now
		class.UpdatedAt = now
		d.classes[class.ID] = class.Clone()
		return nil
	})
}

func (s *Store) UpdateClass(_ context.Context, class *model.ClassDefinition) error {
	return s.write(func(d *data) error {
		existing, ok := d.classes[class.ID]
		if !ok {
			return fmt.Errorf("update class %d: %w", class.ID, storage.ErrNotFound)
		}
		class.CreatedAt = existing.CreatedAt
		class.UpdatedAt = s.now()
		d.classes[class.ID] = class.Clone()
		return nil
	})
}

func (s *Store) DeleteClass(_ context.Context, id int64) error {
	return s.write(func(d *data) error {
		if _, ok := d.classes[id]; !ok {
			return fmt.Errorf("delete class %d: %w", id, storage.ErrNotFound)
		}
		delete(d.classes, id)
		return nil
	})
}

// ============ Окна доступности ============

func (s *Store) GetAvailability(_ context.Context, id int64) (*model.AvailabilitySlot, error) {
	var slot *model.AvailabilitySlot
	s.read(func(d *data) {
		if a, ok := d.availability[id]; ok {
			cp := *a
			slot = &cp
		}
	})
	return slot, nil
}

func (s *Store) LockAvailability(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	return s.GetAvailability(ctx, id)
}

func (s *Store) ListAvailabilityByTeacher(_ context.Context, teacherID int64, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	var slots []*model.AvailabilitySlot
	s.read(func(d *data) {
		for _, a := range d.availability {
			if a.TeacherID != teacherID || a.Date.Before(from) || a.Date.After(to) {
				continue
			}
			cp := *a
			slots = append(slots, &cp)
		}
	})

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].ID < slots[j].ID
	})

	return slots, nil
}

func (s *Store) CreateAvailability(_ context.Context, slot *model.AvailabilitySlot) error {
	return s.write(func(d *data) error {
		slot.ID = d.newID()
		slot.CreatedAt = s.now()
		cp := *slot
		d.availability[slot.ID] = &cp
		return nil
	})
}

func (s *Store) DeleteAvailability(_ context.Context, id int64) error {
	return s.write(func(d *data) error {
		if _, ok := d.availability[id]; !ok {
			return fmt.Errorf("delete availability slot %d: %w", id, storage.ErrNotFound)
		}
		delete(d.availability, id)
		return nil
	})
}

func (s *Store) DeleteAvailabilityBefore(_ context.Context, before time.Time) (int64, error) {
	var count int64
	err := s.write(func(d *data) error {
		for id, a := range d.availability {
			if a.Date.Before(before) {
				delete(d.availability, id)
				count++
			}
		}
		return nil
	})
	return count, err
}

// ============ Журнал переносов ============

func (s *Store) ListReschedulesByStudent(_ context.Context, studentID int64) ([]*model.RescheduleRecord, error) {
	var records []*model.RescheduleRecord
	s.read(func(d *data) {
		for _, r := range d.reschedules {
			if r.StudentID == studentID {
				cp := *r
				records = append(records, &cp)
			}
		}
	})
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func (s *Store) CreateReschedule(_ context.Context, record *model.RescheduleRecord) error {
	return s.write(func(d *data) error {
		for _, r := range d.reschedules {
			if r.StudentID == record.StudentID && r.MonthKey == record.MonthKey {
				return fmt.Errorf("create reschedule record for %s: %w", record.MonthKey, storage.ErrConflict)
			}
		}
		record.ID = d.newID()
		cp := *record
		d.reschedules[record.ID] = &cp
		return nil
	})
}

// ============ Пользователи ============

func copyUser(u *model.User) *model.User {
	cp := *u
	if u.TeacherID != nil {
		id := *u.TeacherID
		cp.TeacherID = &id
	}
	return &cp
}

func (s *Store) findUser(match func(*model.User) bool) *model.User {
	var user *model.User
	s.read(func(d *data) {
		for _, u := range d.users {
			if match(u) {
				user = copyUser(u)
				return
			}
		}
	})
	return user
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.ID == id }), nil
}

func (s *Store) GetUserByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.TelegramID == telegramID }), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	username = strings.TrimPrefix(username, "@")
	return s.findUser(func(u *model.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	users := []*model.User{}
	s.read(func(d *data) {
		for _, id := range ids {
			if u, ok := d.users[id]; ok {
				users = append(users, copyUser(u))
			}
		}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) ListStudentsByTeacher(_ context.Context, teacherID int64) ([]*model.User, error) {
	users := []*model.User{}
	s.read(func(d *data) {
		for _, u := range d.users {
			if u.TeacherID != nil && *u.TeacherID == teacherID {
				users = append(users, copyUser(u))
			}
		}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	return s.write(func(d *data) error {
		for _, u := range d.users {
			if u.TelegramID == user.TelegramID {
				return fmt.Errorf("create user: %w", storage.ErrConflict)
			}
		}
		user.ID = d.newID()
		user.CreatedAt = s.now()
		d.users[user.ID] = copyUser(user)
		return nil
	})
}

func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	return s.write(func(d *data) error {
		existing, ok := d.users[user.ID]
		if !ok {
			return fmt.Errorf("update user %d: %w", user.ID, storage.ErrNotFound)
		}
		user.CreatedAt = existing.CreatedAt
		d.users[user.ID] = copyUser(user)
		return nil
	})
}
