package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/class_scheduler/internal/model"
	"github.com/Freeeeeet/class_scheduler/internal/schedule"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AgendaService строит календарную ленту для ученика или учителя.
// Чтение идёт без блокировок по текущему состоянию хранилища.
type AgendaService struct {
	store   storage.Store
	names   *cache.Cache // user_id -> отображаемое имя
	maxDays int
	logger  *zap.Logger
}

func NewAgendaService(store storage.Store, maxDays int, nameTTL time.Duration, logger *zap.Logger) *AgendaService {
	return &AgendaService{
		store:   store,
		names:   cache.New(nameTTL, 2*nameTTL),
		maxDays: maxDays,
		logger:  logger,
	}
}

// GetAgenda возвращает агенду за период [rangeStart, rangeEnd] (YYYY-MM-DD, включительно)
func (s *AgendaService) GetAgenda(ctx context.Context, role schedule.Role, viewerID int64, rangeStart, rangeEnd string) (model.Agenda, error) {
	query := agendaQuery{
		Role:       string(role),
		ViewerID:   viewerID,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	}
	if err := validateStruct(query); err != nil {
		return nil, err
	}

	from, to, err := s.parseRange(rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get viewer: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("viewer %d: %w", viewerID, ErrNotFound)
	}

	if role == schedule.RoleTeacher && !user.IsTeacher {
		return nil, fmt.Errorf("viewer %d is not a teacher: %w", viewerID, ErrForbidden)
	}

	viewer := schedule.Viewer{Role: role, ID: viewerID}
	availabilityOwner := viewerID
	if role == schedule.RoleStudent {
		if user.TeacherID != nil {
			viewer.TeacherID = *user.TeacherID
		}
		availabilityOwner = viewer.TeacherID
	}

	// Занятия и окна доступности независимы, загружаем параллельно
	var (
		classes []*model.ClassDefinition
		slots   []*model.AvailabilitySlot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if role == schedule.RoleStudent {
			classes, err = s.store.ListClassesByStudent(gctx, viewerID, from, to)
		} else {
			classes, err = s.store.ListClassesByTeacher(gctx, viewerID, from, to)
		}
		return err
	})
	if availabilityOwner != 0 {
		g.Go(func() error {
			var err error
			slots, err = s.store.ListAvailabilityByTeacher(gctx, availabilityOwner, from, to)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load agenda: %w", err)
	}

	var classItems []model.AgendaItem
	for _, class := range classes {
		classItems = append(classItems, schedule.Expand(class, from, to)...)
	}

	var availabilityItems []model.AgendaItem
	if availabilityOwner != 0 {
		availabilityItems = schedule.Project(slots, availabilityOwner, from, to)
	}

	switch role {
	case schedule.RoleStudent:
		if viewer.TeacherID != 0 {
			names, err := s.displayNames(ctx, []int64{viewer.TeacherID})
			if err != nil {
				return nil, err
			}
			viewer.TeacherName = names[viewer.TeacherID]
		}
	case schedule.RoleTeacher:
		names, err := s.displayNames(ctx, studentIDs(classes))
		if err != nil {
			return nil, err
		}
		viewer.StudentNames = names
	}

	agenda := schedule.Merge(classItems, availabilityItems, viewer)

	s.logger.Debug("Agenda built",
		zap.String("role", string(role)),
		zap.Int64("viewer_id", viewerID),
		zap.String("from", rangeStart),
		zap.String("to", rangeEnd),
		zap.Int("classes", len(classes)),
		zap.Int("availability_slots", len(slots)),
		zap.Int("days", len(agenda)),
	)

	return agenda, nil
}

func (s *AgendaService) parseRange(rangeStart, rangeEnd string) (time.Time, time.Time, error) {
	from, err := schedule.ParseDate(rangeStart)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("range_start", err.Error())
	}

	to, err := schedule.ParseDate(rangeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("range_end", err.Error())
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("range_end", "range_end must not be before range_start")
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if s.maxDays > 0 && days > s.maxDays {
		return time.Time{}, time.Time{}, invalid("range_end", fmt.Sprintf("range must not exceed %d days", s.maxDays))
	}

	return from, to, nil
}

// displayNames возвращает имена пользователей, используя кэш
func (s *AgendaService) displayNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))

	var missing []int64
	for _, id := range ids {
		if name, ok := s.names.Get(nameKey(id)); ok {
			names[id] = name.(string)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return names, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("get user names: %w", err)
	}

	for _, user := range users {
		name := user.DisplayName()
		names[user.ID] = name
		s.names.SetDefault(nameKey(user.ID), name)
	}

	return names, nil
}

// ForgetName сбрасывает закэшированное имя пользователя
func (s *AgendaService) ForgetName(userID int64) {
	s.names.Delete(nameKey(userID))
}

func nameKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func studentIDs(classes []*model.ClassDefinition) []int64 {
	seen := make(map[int64]struct{}, len(classes))
	ids := make([]int64, 0, len(classes))
	for _, class := range classes {
		if _, ok := seen[class.StudentID]; ok {
			continue
		}
		seen[class.StudentID] = struct{}{}
		ids = append(ids, class.StudentID)
	}
	return ids
}
