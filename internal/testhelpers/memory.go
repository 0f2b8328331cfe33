package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories mirroring the Mongo implementations closely enough
// for service and handler tests. Records are copied on the way in and out.

func newID() string { return primitive.NewObjectID().Hex() }

type CatalogRepo struct {
	mu    sync.Mutex
	items []*domain.WorkoutCatalogItem
}

func NewCatalogRepo(items ...*domain.WorkoutCatalogItem) *CatalogRepo {
	r := &CatalogRepo{}
	for _, it := range items {
		_ = r.Create(context.Background(), it)
	}
	return r
}

func (r *CatalogRepo) Create(_ context.Context, item *domain.WorkoutCatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Name == item.Name {
			return domain.ErrDuplicateCatalogItem
		}
	}
	if item.ID == "" {
		item.ID = newID()
	}
	cp := *item
	r.items = append(r.items, &cp)
	return nil
}

func (r *CatalogRepo) GetByID(_ context.Context, id string) (*domain.WorkoutCatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, domain.ErrCatalogItemNotFound
}

func (r *CatalogRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.WorkoutCatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*domain.WorkoutCatalogItem{}
	for _, it := range r.items {
		if want[it.ID] {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *CatalogRepo) FindByName(_ context.Context, name string) (*domain.WorkoutCatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if strings.EqualFold(it.Name, name) {
			cp := *it
			return &cp, nil
		}
	}
	return nil, domain.ErrCatalogItemNotFound
}

func (r *CatalogRepo) Find(_ context.Context, f domain.CatalogFilter) ([]*domain.WorkoutCatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.WorkoutCatalogItem{}
	for _, it := range r.items {
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		if f.Intensity != "" && it.Intensity != f.Intensity {
			continue
		}
		if len(f.Categories) > 0 && !containsCategory(f.Categories, it.Category) {
			continue
		}
		cp := *it
		out = append(out, &cp)
		if f.Limit > 0 && int64(len(out)) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *CatalogRepo) Update(_ context.Context, item *domain.WorkoutCatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.ID == item.ID {
			cp := *item
			r.items[i] = &cp
			return nil
		}
	}
	return domain.ErrCatalogItemNotFound
}

// Delete simulates an item vanishing out from under its references.
func (r *CatalogRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

func (r *CatalogRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func containsCategory(cats []domain.Category, c domain.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

type ProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.UserProfile
}

func NewProfileRepo(profiles ...*domain.UserProfile) *ProfileRepo {
	r := &ProfileRepo{profiles: map[string]*domain.UserProfile{}}
	for _, p := range profiles {
		_, _ = r.Upsert(context.Background(), p)
	}
	return r
}

func (r *ProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProfileRepo) Upsert(_ context.Context, profile *domain.UserProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[profile.UserID]
	if ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = newID()
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return !ok, nil
}

func (r *ProfileRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}

type PlanRepo struct {
	mu    sync.Mutex
	plans []*domain.PersonalizedPlan
}

func NewPlanRepo() *PlanRepo { return &PlanRepo{} }

func (r *PlanRepo) Create(_ context.Context, plan *domain.PersonalizedPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.UserID == plan.UserID && p.StartDate.Equal(plan.StartDate) {
			return domain.ErrDuplicatePlan
		}
	}
	plan.ID = newID()
	cp := *plan
	r.plans = append(r.plans, &cp)
	return nil
}

func (r *PlanRepo) GetActiveByUser(_ context.Context, userID string, today time.Time) (*domain.PersonalizedPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.PersonalizedPlan
	for _, p := range r.plans {
		if p.UserID != userID || p.EndDate.Before(today) {
			continue
		}
		if best == nil || p.StartDate.After(best.StartDate) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrPlanNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *PlanRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.plans {
		if p.ID == id {
			r.plans = append(r.plans[:i], r.plans[i+1:]...)
			return nil
		}
	}
	return domain.ErrPlanNotFound
}

func (r *PlanRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans)
}

type ScheduleRepo struct {
	mu      sync.Mutex
	entries []*domain.ScheduleEntry
}

func NewScheduleRepo() *ScheduleRepo { return &ScheduleRepo{} }

func isLive(s domain.ScheduleStatus) bool { return s != domain.ScheduleCancelled }

func (r *ScheduleRepo) UpsertForDay(_ context.Context, entry *domain.ScheduleEntry) (*domain.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.Date.Equal(entry.Date) && isLive(e.Status) {
			cp := *e
			return &cp, nil
		}
	}
	stored := *entry
	stored.ID = newID()
	stored.Status = domain.ScheduleScheduled
	r.entries = append(r.entries, &stored)
	cp := stored
	return &cp, nil
}

func (r *ScheduleRepo) FindForDay(_ context.Context, userID string, day time.Time) (*domain.ScheduleEntry, error) {
	return r.find(func(e *domain.ScheduleEntry) bool {
		return e.UserID == userID && e.Date.Equal(day) && isLive(e.Status)
	})
}

func (r *ScheduleRepo) FindForDayAndItem(_ context.Context, userID, catalogItemID string, day time.Time) (*domain.ScheduleEntry, error) {
	return r.find(func(e *domain.ScheduleEntry) bool {
		return e.UserID == userID && e.CatalogItemID == catalogItemID && e.Date.Equal(day) && isLive(e.Status)
	})
}

func (r *ScheduleRepo) find(match func(*domain.ScheduleEntry) bool) (*domain.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if match(e) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrScheduleEntryNotFound
}

func (r *ScheduleRepo) List(_ context.Context, userID string, f domain.ScheduleFilter) ([]*domain.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.ScheduleEntry{}
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *ScheduleRepo) UpdateStatus(_ context.Context, id string, status domain.ScheduleStatus) error {
	return r.update(id, func(e *domain.ScheduleEntry) { e.Status = status })
}

func (r *ScheduleRepo) MarkCompleted(_ context.Context, id, sessionID string, actualSteps int) error {
	return r.update(id, func(e *domain.ScheduleEntry) {
		e.Status = domain.ScheduleCompleted
		e.CompletedSessionID = sessionID
		e.ActualSteps = actualSteps
	})
}

func (r *ScheduleRepo) update(id string, apply func(*domain.ScheduleEntry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			apply(e)
			return nil
		}
	}
	return domain.ErrScheduleEntryNotFound
}

func (r *ScheduleRepo) CancelScheduledFrom(_ context.Context, userID string, from time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if e.UserID == userID && e.Status == domain.ScheduleScheduled && !e.Date.Before(from) {
			e.Status = domain.ScheduleCancelled
			e.CancellationReason = reason
			n++
		}
	}
	return n, nil
}

// All returns every entry, cancelled ones included.
func (r *ScheduleRepo) All() []*domain.ScheduleEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ScheduleEntry, len(r.entries))
	for i, e := range r.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}

type DailyRepo struct {
	mu      sync.Mutex
	records []*domain.DailyResolution
}

func NewDailyRepo() *DailyRepo { return &DailyRepo{} }

func (r *DailyRepo) GetByUserAndDate(_ context.Context, userID string, date time.Time) (*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.lookup(userID, date); rec != nil {
		cp := *rec
		return &cp, nil
	}
	return nil, domain.ErrDailyResolutionNotFound
}

func (r *DailyRepo) lookup(userID string, date time.Time) *domain.DailyResolution {
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Date.Equal(date) {
			return rec
		}
	}
	return nil
}

func (r *DailyRepo) Upsert(_ context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.lookup(res.UserID, res.Date)
	if rec == nil {
		stored := *res
		stored.ID = newID()
		stored.Workout = nil
		r.records = append(r.records, &stored)
		rec = &stored
	} else {
		rec.CatalogItemID = res.CatalogItemID
		rec.ScheduleEntryID = res.ScheduleEntryID
		rec.TargetSteps = res.TargetSteps
	}
	cp := *rec
	return &cp, nil
}

func (r *DailyRepo) InsertIfAbsent(_ context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.lookup(res.UserID, res.Date)
	if rec == nil {
		stored := *res
		stored.ID = newID()
		stored.Workout = nil
		r.records = append(r.records, &stored)
		rec = &stored
	}
	cp := *rec
	return &cp, nil
}

func (r *DailyRepo) RepairReference(_ context.Context, id, catalogItemID, scheduleEntryID string) (*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.CatalogItemID = catalogItemID
			rec.ScheduleEntryID = scheduleEntryID
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrDailyResolutionNotFound
}

func (r *DailyRepo) SetActiveSession(_ context.Context, userID string, date time.Time, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.lookup(userID, date)
	if rec == nil {
		return domain.ErrDailyResolutionNotFound
	}
	rec.ActiveSessionID = sessionID
	return nil
}

func (r *DailyRepo) MarkCompleted(_ context.Context, userID string, date time.Time, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.lookup(userID, date)
	if rec == nil {
		return domain.ErrDailyResolutionNotFound
	}
	rec.Completed = true
	rec.CompletedSessionID = sessionID
	rec.ActiveSessionID = ""
	return nil
}

func (r *DailyRepo) List(_ context.Context, userID string, from, to time.Time) ([]*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.DailyResolution{}
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.Date.Before(from) && !rec.Date.After(to) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *DailyRepo) ListByDate(_ context.Context, date time.Time) ([]*domain.DailyResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.DailyResolution{}
	for _, rec := range r.records {
		if rec.Date.Equal(date) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *DailyRepo) DeleteFrom(_ context.Context, userID string, from time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.DailyResolution
	var n int64
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.Date.Before(from) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return n, nil
}

// Put stores rec as-is, for arranging broken states in tests.
func (r *DailyRepo) Put(rec *domain.DailyResolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = newID()
	}
	cp := *rec
	r.records = append(r.records, &cp)
}

func (r *DailyRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type SessionRepo struct {
	mu       sync.Mutex
	sessions []*domain.WorkoutSession
}

func NewSessionRepo() *SessionRepo { return &SessionRepo{} }

func (r *SessionRepo) Create(_ context.Context, s *domain.WorkoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = newID()
	cp := *s
	r.sessions = append(r.sessions, &cp)
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*domain.WorkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *SessionRepo) SaveCompletion(_ context.Context, s *domain.WorkoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sessions {
		if existing.ID == s.ID {
			if existing.Status != domain.SessionInProgress {
				return domain.ErrSessionAlreadyCompleted
			}
			cp := *s
			r.sessions[i] = &cp
			return nil
		}
	}
	return domain.ErrSessionNotFound
}

func (r *SessionRepo) SaveProgress(_ context.Context, s *domain.WorkoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.ID == s.ID {
			if existing.Status != domain.SessionInProgress {
				return domain.ErrSessionAlreadyCompleted
			}
			existing.Metrics = s.Metrics
			existing.UpdatedAt = s.UpdatedAt
			return nil
		}
	}
	return domain.ErrSessionNotFound
}

func (r *SessionRepo) FindActive(_ context.Context, userID, catalogItemID string) (*domain.WorkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sessions) - 1; i >= 0; i-- {
		s := r.sessions[i]
		if s.UserID == userID && s.CatalogItemID == catalogItemID && s.Status == domain.SessionInProgress {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *SessionRepo) List(_ context.Context, userID string, f domain.SessionFilter) ([]*domain.WorkoutSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.WorkoutSession
	for _, s := range r.sessions {
		if s.UserID != userID || (f.Status != "" && s.Status != f.Status) {
			continue
		}
		if !f.From.IsZero() && s.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && s.StartTime.After(f.To) {
			continue
		}
		cp := *s
		matched = append(matched, &cp)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartTime.After(matched[j].StartTime) })

	limit, page := f.Limit, f.Page
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	out := []*domain.WorkoutSession{}
	for i := start; i < int64(len(matched)) && i < start+limit; i++ {
		out = append(out, matched[i])
	}
	return out, int64(len(matched)), nil
}

func (r *SessionRepo) SetRouteArchive(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			s.RouteArchiveURL = url
			return nil
		}
	}
	return domain.ErrSessionNotFound
}

type ChallengeRepo struct {
	mu   sync.Mutex
	defs []*domain.ChallengeDefinition
}

func NewChallengeRepo() *ChallengeRepo { return &ChallengeRepo{} }

func (r *ChallengeRepo) Create(_ context.Context, def *domain.ChallengeDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.defs {
		if d.Key == def.Key {
			return domain.ErrDuplicateChallenge
		}
	}
	def.ID = newID()
	cp := *def
	r.defs = append(r.defs, &cp)
	return nil
}

func (r *ChallengeRepo) GetByKey(_ context.Context, key string) (*domain.ChallengeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.defs {
		if d.Key == key {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrChallengeNotFound
}

func (r *ChallengeRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.ChallengeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.ChallengeDefinition{}
	for _, d := range r.defs {
		for _, id := range ids {
			if d.ID == id {
				cp := *d
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *ChallengeRepo) ListActive(_ context.Context) ([]*domain.ChallengeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.ChallengeDefinition{}
	for _, d := range r.defs {
		if d.IsActive {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChallengeRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.defs)
}

type EnrollmentRepo struct {
	mu          sync.Mutex
	enrollments []*domain.ChallengeEnrollment
}

func NewEnrollmentRepo() *EnrollmentRepo { return &EnrollmentRepo{} }

func (r *EnrollmentRepo) Create(_ context.Context, e *domain.ChallengeEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.enrollments {
		if x.UserID == e.UserID && x.ChallengeID == e.ChallengeID && x.Status == domain.EnrollmentActive {
			return domain.ErrAlreadyEnrolled
		}
	}
	e.ID = newID()
	r.enrollments = append(r.enrollments, cloneEnrollment(e))
	return nil
}

func (r *EnrollmentRepo) GetActive(_ context.Context, userID, challengeID string) (*domain.ChallengeEnrollment, error) {
	return r.latest(func(e *domain.ChallengeEnrollment) bool {
		return e.UserID == userID && e.ChallengeID == challengeID && e.Status == domain.EnrollmentActive
	})
}

func (r *EnrollmentRepo) GetLatest(_ context.Context, userID, challengeID string) (*domain.ChallengeEnrollment, error) {
	return r.latest(func(e *domain.ChallengeEnrollment) bool {
		return e.UserID == userID && e.ChallengeID == challengeID
	})
}

func (r *EnrollmentRepo) latest(match func(*domain.ChallengeEnrollment) bool) (*domain.ChallengeEnrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.enrollments) - 1; i >= 0; i-- {
		if match(r.enrollments[i]) {
			return cloneEnrollment(r.enrollments[i]), nil
		}
	}
	return nil, domain.ErrEnrollmentNotFound
}

func (r *EnrollmentRepo) ListByUser(_ context.Context, userID string, status domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.ChallengeEnrollment{}
	for _, e := range r.enrollments {
		if e.UserID == userID && (status == "" || e.Status == status) {
			out = append(out, cloneEnrollment(e))
		}
	}
	return out, nil
}

func (r *EnrollmentRepo) Save(_ context.Context, e *domain.ChallengeEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.enrollments {
		if x.ID == e.ID {
			r.enrollments[i] = cloneEnrollment(e)
			return nil
		}
	}
	return domain.ErrEnrollmentNotFound
}

func cloneEnrollment(e *domain.ChallengeEnrollment) *domain.ChallengeEnrollment {
	cp := *e
	cp.DailyProgress = append([]domain.DayProgress(nil), e.DailyProgress...)
	cp.Challenge = nil
	return &cp
}

type UserRepo struct {
	mu    sync.Mutex
	users []*domain.User
}

func NewUserRepo() *UserRepo { return &UserRepo{} }

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == u.Email {
			return domain.ErrEmailLinkedToUID
		}
	}
	u.ID = newID()
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByFirebaseUID(_ context.Context, uid string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == uid })
}

func (r *UserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepo) UpdateFirebaseUID(_ context.Context, userID string, firebaseUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.FirebaseUID = firebaseUID
			return nil
		}
	}
	return domain.ErrUserNotFound
}
