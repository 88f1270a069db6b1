package target

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"certhub/internal/domain/notification"
	"certhub/internal/domain/payment"
	"certhub/internal/domain/ranking"
	"certhub/internal/domain/user"
	"certhub/internal/testutil"
)

type fixture struct {
	db         *gorm.DB
	svc        *Service
	users      *user.Repository
	groups     *ranking.Repository
	membership *ranking.Service
	notes      *notification.Repository
	groupIDs   map[string]int64
	admin      *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t,
		&user.User{},
		&ranking.Group{},
		&ranking.Membership{},
		&payment.Payment{},
		&notification.Notification{},
	)

	users := user.NewRepository(db)
	groups := ranking.NewRepository(db)
	notes := notification.NewRepository(db)
	notifier := notification.NewService(notes, users, nil)
	svc := NewService(db, users, groups, payment.NewRepository(db), notifier, nil)

	f := &fixture{
		db:         db,
		svc:        svc,
		users:      users,
		groups:     groups,
		membership: ranking.NewService(db, groups, users, svc, nil),
		notes:      notes,
		groupIDs:   map[string]int64{},
	}

	ctx := context.Background()
	for _, g := range []ranking.Group{
		{Name: "Член ассоциации", Rank: 1},
		{Name: "Инструктор", Rank: 2},
		{Name: "Куратор", Rank: 3},
		{Name: "Супервизор", Rank: 4},
	} {
		require.NoError(t, groups.Create(ctx, &g))
		f.groupIDs[g.Name] = g.ID
	}

	f.admin = f.newUser(t, "admin@example.com", user.RoleAdmin)
	return f
}

func (f *fixture) newUser(t *testing.T, email string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{Email: email, PasswordHash: "x", Name: email, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) join(t *testing.T, userID int64, groupName string) bool {
	t.Helper()
	out, err := f.membership.AddUserToGroup(context.Background(), userID, f.groupIDs[groupName])
	require.NoError(t, err)
	return out.TargetReset
}

func (f *fixture) state(t *testing.T, userID int64) State {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return stateOf(u)
}

func (f *fixture) addPayment(t *testing.T, userID int64, pt payment.Type, st payment.Status) {
	t.Helper()
	p := payment.Payment{UserID: userID, Type: pt, Status: st, Amount: 1000}
	if st == payment.StatusPaid {
		now := time.Now().UTC()
		p.ConfirmedAt = &now
	}
	require.NoError(t, f.db.Create(&p).Error)
}

func (f *fixture) paymentStatuses(t *testing.T, userID int64) map[payment.Type]payment.Payment {
	t.Helper()
	list, err := payment.NewRepository(f.db).ListByUser(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[payment.Type]payment.Payment, len(list))
	for _, p := range list {
		out[p.Type] = p
	}
	return out
}

func (f *fixture) adminNotifications(t *testing.T) []notification.Notification {
	t.Helper()
	list, _, err := f.notes.ListByUser(context.Background(), f.admin.ID, 100, 0)
	require.NoError(t, err)
	return list
}

func self(u *user.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func lvl(l Level) *Level {
	return &l
}

func assertLockInvariant(t *testing.T, s State) {
	t.Helper()
	if s.TargetLockRank != nil {
		assert.NotNil(t, s.TargetLevel, "lock rank set without a target level")
	}
}

func TestSetTargetFromLadderLocksAtActiveRank(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)

	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelInstructor))
	require.NoError(t, err)
	require.NotNil(t, res.TargetLevel)
	require.NotNil(t, res.TargetLockRank)
	assert.Equal(t, LevelInstructor, *res.TargetLevel)
	assert.Equal(t, 0, *res.TargetLockRank)
	assert.Zero(t, res.ResetCount)

	st := f.state(t, u.ID)
	assertLockInvariant(t, st)
	assert.Equal(t, LevelInstructor, *st.TargetLevel)
	assert.Equal(t, 0, *st.TargetLockRank)

	notes := f.adminNotifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeTargetLevelChanged, notes[0].Type)
	assert.Contains(t, notes[0].Message, "INSTRUCTOR")
}

func TestLockRankStoresActiveRankNotTargetRank(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "member@example.com", user.RoleStudent)
	f.join(t, u.ID, "Инструктор")

	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelSupervisor))
	require.NoError(t, err)
	assert.Equal(t, 2, *res.TargetLockRank)
}

func TestSetTargetTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	f.addPayment(t, u.ID, payment.TypeExamAccess, payment.StatusPaid)
	ctx := context.Background()

	first, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelCurator))
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ResetCount)

	f.addPayment(t, u.ID, payment.TypeDocumentReview, payment.StatusPaid)
	second, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelCurator))
	require.NoError(t, err)
	assert.Zero(t, second.ResetCount)
	assert.Equal(t, first.State, second.State)

	assert.Len(t, f.adminNotifications(t), 1)
	assert.Equal(t, payment.StatusPaid, f.paymentStatuses(t, u.ID)[payment.TypeDocumentReview].Status)
}

func TestResetOnLadderIsNoop(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	f.addPayment(t, u.ID, payment.TypeRegistration, payment.StatusPaid)

	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, res.ResetCount)
	assert.Nil(t, res.TargetLevel)
	assert.Nil(t, res.TargetLockRank)

	assert.Equal(t, payment.StatusPaid, f.paymentStatuses(t, u.ID)[payment.TypeRegistration].Status)
	assert.Empty(t, f.adminNotifications(t))
}

func TestTargetBelowActiveRejectedForEveryone(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "curator@example.com", user.RoleStudent)
	f.join(t, u.ID, "Куратор")
	ctx := context.Background()

	_, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrTargetBelowActive)

	_, err = f.svc.SetTarget(ctx, self(f.admin), u.ID, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrTargetBelowActive)

	res, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelCurator))
	require.NoError(t, err)
	assert.Equal(t, 3, *res.TargetLockRank)
}

func TestLockedTargetBlocksOwnerButNotAdmin(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	ctx := context.Background()

	_, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelInstructor))
	require.NoError(t, err)

	_, err = f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelCurator))
	assert.ErrorIs(t, err, ErrTargetLocked)

	_, err = f.svc.SetTarget(ctx, self(u), u.ID, nil)
	assert.ErrorIs(t, err, ErrTargetLocked)

	res, err := f.svc.SetTarget(ctx, self(f.admin), u.ID, lvl(LevelCurator))
	require.NoError(t, err)
	assert.Equal(t, LevelCurator, *res.TargetLevel)

	res, err = f.svc.SetTarget(ctx, self(f.admin), u.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.TargetLevel)
	assert.Nil(t, res.TargetLockRank)

	st := f.state(t, u.ID)
	assert.Nil(t, st.TargetLevel)
	assert.Nil(t, st.TargetLockRank)
}

func TestResetPathResetsAllPaymentTypes(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	ctx := context.Background()

	f.addPayment(t, u.ID, payment.TypeRegistration, payment.StatusPaid)
	f.addPayment(t, u.ID, payment.TypeDocumentReview, payment.StatusPending)
	f.addPayment(t, u.ID, payment.TypeExamAccess, payment.StatusPaid)
	f.addPayment(t, u.ID, payment.TypeFullPackage, payment.StatusUnpaid)

	// Lock rank that no longer matches the active rank: not locked now.
	level, rank := string(LevelCurator), 5
	require.NoError(t, f.users.UpdateTarget(ctx, u.ID, &level, &rank))

	res, err := f.svc.SetTarget(ctx, self(u), u.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.ResetCount)

	for pt, p := range f.paymentStatuses(t, u.ID) {
		assert.Equal(t, payment.StatusUnpaid, p.Status, pt)
		assert.Nil(t, p.ConfirmedAt, pt)
	}
	assert.Equal(t, resetComment, f.paymentStatuses(t, u.ID)[payment.TypeRegistration].Comment)

	notes := f.adminNotifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeTargetLevelReset, notes[0].Type)
	assert.Contains(t, notes[0].Message, "payments reset: 3")
}

func TestSetPathResetsOnlyExamAccess(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)

	f.addPayment(t, u.ID, payment.TypeRegistration, payment.StatusPaid)
	f.addPayment(t, u.ID, payment.TypeDocumentReview, payment.StatusPending)
	f.addPayment(t, u.ID, payment.TypeExamAccess, payment.StatusPending)
	f.addPayment(t, u.ID, payment.TypeFullPackage, payment.StatusPaid)

	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelSupervisor))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.ResetCount)

	got := f.paymentStatuses(t, u.ID)
	assert.Equal(t, payment.StatusUnpaid, got[payment.TypeExamAccess].Status)
	assert.Equal(t, changeComment, got[payment.TypeExamAccess].Comment)
	assert.Equal(t, payment.StatusPaid, got[payment.TypeRegistration].Status)
	assert.Equal(t, payment.StatusPending, got[payment.TypeDocumentReview].Status)
	assert.Equal(t, payment.StatusPaid, got[payment.TypeFullPackage].Status)
	assert.NotNil(t, got[payment.TypeFullPackage].ConfirmedAt)
}

func TestSetTargetAuthorization(t *testing.T) {
	f := newFixture(t)
	owner := f.newUser(t, "owner@example.com", user.RoleStudent)
	other := f.newUser(t, "other@example.com", user.RoleStudent)
	reviewer := f.newUser(t, "reviewer@example.com", user.RoleReviewer)
	ctx := context.Background()

	_, err := f.svc.SetTarget(ctx, Actor{}, owner.ID, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.SetTarget(ctx, self(other), owner.ID, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SetTarget(ctx, self(reviewer), owner.ID, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SetTarget(ctx, self(f.admin), owner.ID, lvl(LevelInstructor))
	assert.NoError(t, err)
}

func TestSetTargetValidation(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	ctx := context.Background()

	_, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl("MASTER"))
	assert.ErrorIs(t, err, ErrInvalidTargetLevel)

	_, err = f.svc.SetTarget(ctx, self(f.admin), 9999, lvl(LevelInstructor))
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.db.Where("name = ?", "Супервизор").Delete(&ranking.Group{}).Error)
	_, err = f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelSupervisor))
	assert.ErrorIs(t, err, ErrTargetGroupNotConfigured)

	st := f.state(t, u.ID)
	assert.Nil(t, st.TargetLevel)
}

func TestSetTargetCanceledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelInstructor))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, context.Canceled)

	st := f.state(t, u.ID)
	assert.Nil(t, st.TargetLevel)
	assert.Nil(t, st.TargetLockRank)
}

type failingNotifier struct{}

func (failingNotifier) NotifyAdmins(context.Context, notification.Type, string, string) (int, error) {
	return 0, errors.New("sink unavailable")
}

func TestNotificationFailureDoesNotFailSetTarget(t *testing.T) {
	f := newFixture(t)
	f.svc.notifier = failingNotifier{}
	u := f.newUser(t, "student@example.com", user.RoleStudent)

	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelInstructor))
	require.NoError(t, err)
	assert.Equal(t, LevelInstructor, *res.TargetLevel)
	assert.Equal(t, LevelInstructor, *f.state(t, u.ID).TargetLevel)
}

func TestPromotionClearsLockedTarget(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)

	_, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelInstructor))
	require.NoError(t, err)

	reset := f.join(t, u.ID, "Инструктор")
	assert.True(t, reset)

	st := f.state(t, u.ID)
	assert.Nil(t, st.TargetLevel)
	assert.Nil(t, st.TargetLockRank)

	// The cleared target can be set again at the new rank.
	res, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelCurator))
	require.NoError(t, err)
	assert.Equal(t, 2, *res.TargetLockRank)
}

func TestMembershipChangeWithoutRankChangeKeepsTarget(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "curator@example.com", user.RoleStudent)
	f.join(t, u.ID, "Куратор")

	_, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelSupervisor))
	require.NoError(t, err)

	assert.False(t, f.join(t, u.ID, "Инструктор"))

	st := f.state(t, u.ID)
	require.NotNil(t, st.TargetLevel)
	assert.Equal(t, LevelSupervisor, *st.TargetLevel)
	assert.Equal(t, 3, *st.TargetLockRank)
}

func TestDemotionClearsTarget(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "curator@example.com", user.RoleStudent)
	f.join(t, u.ID, "Куратор")

	_, err := f.svc.SetTarget(context.Background(), self(u), u.ID, lvl(LevelSupervisor))
	require.NoError(t, err)

	out, err := f.membership.SetUserGroups(context.Background(), u.ID, nil)
	require.NoError(t, err)
	assert.True(t, out.TargetReset)
	assert.Zero(t, out.ActiveRank)
	assert.Nil(t, f.state(t, u.ID).TargetLevel)
}

func TestReconcileRankChange(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	ctx := context.Background()

	reconcile := func() bool {
		var reset bool
		require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
			var err error
			reset, err = f.svc.ReconcileRankChange(ctx, tx, u.ID)
			return err
		}))
		return reset
	}

	assert.False(t, reconcile(), "no target is a no-op")

	level := string(LevelInstructor)
	require.NoError(t, f.users.UpdateTarget(ctx, u.ID, &level, nil))
	assert.True(t, reconcile(), "unset lock rank diverges from rank 0")
	assert.Nil(t, f.state(t, u.ID).TargetLevel)

	rank := 0
	require.NoError(t, f.users.UpdateTarget(ctx, u.ID, &level, &rank))
	assert.False(t, reconcile(), "matching rank keeps target")
	assert.NotNil(t, f.state(t, u.ID).TargetLevel)
}

func TestReconcileRankChangeUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.ReconcileRankChange(context.Background(), tx, 4242)
		return err
	})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestGetState(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "student@example.com", user.RoleStudent)
	other := f.newUser(t, "other@example.com", user.RoleStudent)
	f.join(t, u.ID, "Член ассоциации")
	ctx := context.Background()

	_, err := f.svc.SetTarget(ctx, self(u), u.ID, lvl(LevelInstructor))
	require.NoError(t, err)

	view, err := f.svc.GetState(ctx, self(u), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ActiveRank)
	assert.True(t, view.LockedNow)

	_, err = f.svc.GetState(ctx, self(other), u.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetState(ctx, Actor{}, u.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
