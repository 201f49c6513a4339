package router

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/metrics"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/santa"
	"github.com/mmynk/wichtelbot/internal/storage/jsonfile"
)

var (
	olga  = santa.Actor{ID: "1", DisplayName: "Olga", Username: "olga"}
	alice = santa.Actor{ID: "11", DisplayName: "Alice", Username: "alice"}
	bob   = santa.Actor{ID: "12", DisplayName: "Bob", Username: "bob"}
	anon  = santa.Actor{ID: "13", Username: "anon"}
	admin = santa.Actor{ID: "99", DisplayName: "Admin", Username: "santa_admin"}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	router  *Router
	coord   *santa.Coordinator
	clock   *clock
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, sender notify.Sender) *harness {
	t.Helper()
	store, err := jsonfile.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	engine, err := assignment.NewEngine()
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	clk := &clock{now: time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)}

	coord, err := santa.New(context.Background(), store, engine, notify.NewDispatcher(2, time.Second, m), santa.Options{
		AdminUsername: "@santa_admin",
		Metrics:       m,
		Now:           clk.Now,
	})
	require.NoError(t, err)

	r := New(coord, Options{
		Sender:         sender,
		PendingTimeout: 5 * time.Minute,
		Metrics:        m,
		Now:            clk.Now,
	})
	return &harness{router: r, coord: coord, clock: clk, metrics: m}
}

func (h *harness) send(actor santa.Actor, name string, args ...string) Result {
	return h.router.Handle(context.Background(), Command{Name: name, Args: args, Actor: actor})
}

func (h *harness) say(actor santa.Actor, text string) Result {
	return h.send(actor, "", strings.Fields(text)...)
}

func TestStartAndHelp(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, msgWelcome, h.send(alice, "/start").Text)
	require.Equal(t, msgHelp, h.send(alice, "help").Text)
	require.Equal(t, msgUnknown, h.send(alice, "/frobnicate").Text)
	require.Equal(t, msgPlainText, h.say(alice, "hallo").Text)
}

func TestNormalizeCommand(t *testing.T) {
	tests := map[string]string{
		"/join":            "join",
		"join":             "join",
		" /JOIN ":          "join",
		"/join@WichtelBot": "join",
		"":                 "",
	}
	for in, want := range tests {
		require.Equal(t, want, normalizeCommand(in), in)
	}
}

func TestMissingActor(t *testing.T) {
	h := newHarness(t, nil)
	res := h.send(santa.Actor{}, "/create", "Xmas")
	require.Equal(t, kindText[santa.KindValidation], res.Text)
}

func TestGroupNamePrompt(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	res := h.send(olga, "/create")
	req.Equal(msgAskGroupName, res.Text)
	req.Equal(PhaseAwaitingGroupName, h.router.Phase(olga.ID))

	res = h.say(olga, "Xmas")
	req.Equal(fmt.Sprintf(msgCreated, "Xmas", "Xmas"), res.Text)
	req.Equal(PhaseIdle, h.router.Phase(olga.ID))

	_, err := h.coord.GetGroup("Xmas")
	req.NoError(err)
}

func TestPromptExpires(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	req.Equal(msgAskGroupName, h.send(olga, "/create").Text)
	h.clock.Advance(6 * time.Minute)
	req.Equal(PhaseIdle, h.router.Phase(olga.ID))
	req.Equal(msgPlainText, h.say(olga, "Xmas").Text)

	_, err := h.coord.GetGroup("Xmas")
	req.ErrorIs(err, santa.ErrNotFound)
}

func TestCancel(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	req.Equal(msgNothingPending, h.send(olga, "/cancel").Text)

	h.send(olga, "/create")
	req.Equal(msgCancelled, h.send(olga, "/cancel").Text)
	req.Equal(PhaseIdle, h.router.Phase(olga.ID))
	req.Equal(msgPlainText, h.say(olga, "Xmas").Text)
}

func TestNewCommandDropsPrompt(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	h.send(olga, "/create")
	req.Equal(PhaseAwaitingGroupName, h.router.Phase(olga.ID))
	h.send(olga, "/status")
	req.Equal(PhaseIdle, h.router.Phase(olga.ID))
}

func TestJoin_DisplayNamePrompt(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")

	res := h.send(anon, "/join", "Xmas")
	req.Equal(msgAskDisplayName, res.Text)
	req.Equal(PhaseAwaitingDisplayName, h.router.Phase(anon.ID))
	_, member := h.coord.MembershipOf(anon.ID)
	req.False(member)

	res = h.say(anon, "Anna Maria")
	req.Equal(fmt.Sprintf(msgJoined, "Xmas", "Anna Maria"), res.Text)
	req.Equal(PhaseIdle, h.router.Phase(anon.ID))

	group, err := h.coord.GetGroup("Xmas")
	req.NoError(err)
	req.Equal("Anna Maria", group.Participants[0].DisplayName)
}

func TestJoin_PromptChain(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")

	req.Equal(msgAskGroupName, h.send(anon, "/join").Text)
	req.Equal(msgAskDisplayName, h.say(anon, "Xmas").Text)
	req.Equal(fmt.Sprintf(msgJoined, "Xmas", "Anon"), h.say(anon, "Anon").Text)
}

func TestJoin_ExplicitName(t *testing.T) {
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	res := h.send(alice, "/join", "Xmas", "Ali", "B.")
	require.Equal(t, fmt.Sprintf(msgJoined, "Xmas", "Ali B."), res.Text)
}

func TestJoin_Errors(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(olga, "/create", "Office")

	req.Equal(kindText[santa.KindNotFound], h.send(alice, "/join", "Nope").Text)
	h.send(alice, "/join", "Xmas")
	req.Equal(kindText[santa.KindAlreadyInGroup], h.send(alice, "/join", "Office").Text)
	req.Equal(1.0, testutil.ToFloat64(h.metrics.Commands.WithLabelValues("join", "already_in_group")))
}

func TestInvalidGroupName(t *testing.T) {
	h := newHarness(t, nil)
	res := h.send(olga, "/create", strings.Repeat("x", maxGroupNameLength+1))
	require.Equal(t, fmt.Sprintf(msgInvalidGroupName, maxGroupNameLength), res.Text)
	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Commands.WithLabelValues("create", "validation")))
}

func TestLeaveAndStatus(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(olga, "/join", "Xmas")
	h.send(alice, "/join", "Xmas")
	h.send(alice, "/wish", "Ein", "gutes", "Buch")

	status := h.send(olga, "/status").Text
	req.Contains(status, fmt.Sprintf(msgStatus, "Xmas", 2))
	req.Contains(status, msgStatusOwner)
	req.Equal(fmt.Sprintf(msgStatus, "Xmas", 2)+"\n"+fmt.Sprintf(msgStatusWish, "Ein gutes Buch"), h.send(alice, "/status").Text)

	req.Equal(fmt.Sprintf(msgLeft, "Xmas"), h.send(alice, "/leave").Text)
	req.Equal(kindText[santa.KindNotInGroup], h.send(alice, "/leave").Text)
	req.Equal(fmt.Sprintf(msgLeftDeleted, "Xmas"), h.send(olga, "/leave").Text)
	req.Equal(msgStatusNone, h.send(olga, "/status").Text)
}

func TestList(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	req.Equal(msgListEmpty, h.send(bob, "/list", "Xmas").Text)

	h.send(alice, "/join", "Xmas")
	h.send(bob, "/join", "Xmas")
	req.Equal("Aktuelle Teilnehmer in Gruppe Xmas:\n- Alice\n- Bob", h.send(bob, "/list", "Xmas").Text)
}

func TestRestrict(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(alice, "/join", "Xmas")
	h.send(bob, "/join", "Xmas")
	h.send(anon, "/join", "Xmas", "bob")

	req.Equal(msgRestrictUsage, h.send(olga, "/restrict", "Xmas", "alice").Text)
	req.Equal(fmt.Sprintf(msgUnknownName, "carol"), h.send(olga, "/restrict", "Xmas", "alice", "carol").Text)
	req.Equal(fmt.Sprintf(msgAmbiguousName, "BOB"), h.send(olga, "/restrict", "Xmas", "alice", "BOB").Text)
	req.Equal(msgSameUser, h.send(olga, "/restrict", "Xmas", "alice", alice.ID).Text)
	req.Equal(kindText[santa.KindForbidden], h.send(alice, "/restrict", "Xmas", "alice", bob.ID).Text)

	req.Equal(fmt.Sprintf(msgRestricted, "Alice", "Bob"), h.send(olga, "/restrict", "Xmas", "ALICE", bob.ID).Text)
	req.Equal(msgRestrictedDup, h.send(olga, "/restrict", "Xmas", alice.ID, bob.ID).Text)

	group, err := h.coord.GetGroup("Xmas")
	req.NoError(err)
	req.True(group.Restrictions.Forbids(alice.ID, bob.ID))
}

func TestWish(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)

	req.Equal(msgWishUsage, h.send(alice, "/wish").Text)
	req.Equal(msgInvalidWish, h.send(alice, "/wish", strings.Repeat("ä", 501)).Text)
	req.Equal(msgWishStored, h.send(alice, "/wish", "Socken").Text)
	req.Equal(fmt.Sprintf(msgStatusWish, "Socken"), h.send(alice, "/wish").Text)
}

func TestAssign_Scenario(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(alice, "/join", "Xmas")
	h.send(bob, "/join", "Xmas")
	h.send(bob, "/wish", "Lebkuchen")

	req.Equal(kindText[santa.KindForbidden], h.send(alice, "/assign", "Xmas").Text)

	res := h.send(olga, "/assign", "Xmas")
	req.Equal(fmt.Sprintf(msgAssigned, "Xmas"), res.Text)
	req.Len(res.Notifications, 2)
	req.Equal(alice.ID, res.Notifications[0].UserID)
	req.Contains(res.Notifications[0].Text, "Bob")
	req.Contains(res.Notifications[0].Text, "Lebkuchen")
	req.Equal(bob.ID, res.Notifications[1].UserID)
	req.Contains(res.Notifications[1].Text, "Alice")
	req.NotEqual(res.Notifications[0].ID, res.Notifications[1].ID)

	req.Equal(kindText[santa.KindNotFound], h.send(olga, "/list", "Xmas").Text)
	req.Equal(fmt.Sprintf(msgCreated, "Xmas", "Xmas"), h.send(alice, "/create", "Xmas").Text)
}

func TestAssign_ModeAndErrors(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(alice, "/join", "Xmas")

	req.Equal(kindText[santa.KindInsufficientParticipants], h.send(olga, "/assign", "Xmas").Text)
	req.Equal(fmt.Sprintf(msgInvalidMode, "zigzag"), h.send(olga, "/assign", "Xmas", "zigzag").Text)

	h.send(bob, "/join", "Xmas")
	h.send(olga, "/restrict", "Xmas", "alice", "bob")
	req.Equal(kindText[santa.KindInfeasible], h.send(olga, "/assign", "Xmas").Text)

	res := h.send(admin, "/assign", "Xmas", "circle")
	req.Equal(fmt.Sprintf(msgAssignedCircle, "Xmas"), res.Text)
	req.Len(res.Notifications, 2)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
	fail string
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.UserID == s.fail {
		return fmt.Errorf("chat not found")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestAssign_ConfiguredSender(t *testing.T) {
	req := require.New(t)
	sender := &recordingSender{fail: bob.ID}
	h := newHarness(t, sender)
	h.send(olga, "/create", "Xmas")
	h.send(alice, "/join", "Xmas")
	h.send(bob, "/join", "Xmas")

	res := h.send(olga, "/assign", "Xmas")
	req.Empty(res.Notifications)
	req.Equal(fmt.Sprintf(msgAssigned, "Xmas")+"\n"+fmt.Sprintf(msgNotifyFailed, "Bob"), res.Text)
	req.Len(sender.sent, 1)
	req.Equal(alice.ID, sender.sent[0].UserID)
}

func TestResetDeleteAndGroups(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil)
	h.send(olga, "/create", "Xmas")
	h.send(olga, "/create", "Büro")
	h.send(alice, "/join", "Xmas")

	req.Equal(kindText[santa.KindForbidden], h.send(alice, "/groups").Text)
	req.Equal("Alle Gruppen:\n- Büro (0 Teilnehmer)\n- Xmas (1 Teilnehmer)", h.send(admin, "/groups").Text)

	req.Equal(kindText[santa.KindForbidden], h.send(alice, "/reset", "Xmas").Text)
	req.Equal(fmt.Sprintf(msgReset, "Xmas", 1), h.send(olga, "/reset", "Xmas").Text)

	req.Equal(kindText[santa.KindForbidden], h.send(alice, "/delete", "Büro").Text)
	req.Equal(fmt.Sprintf(msgDeleted, "Büro"), h.send(admin, "/delete", "Büro").Text)
	req.Equal(fmt.Sprintf(msgDeleted, "Xmas"), h.send(olga, "/delete", "Xmas").Text)
	req.Equal(msgGroupsEmpty, h.send(admin, "/groups").Text)
}
