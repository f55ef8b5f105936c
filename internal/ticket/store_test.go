package ticket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		out = append(out, event.Type)
	}
	return out
}

func newTestStore(t *testing.T) (*Store, *fakeClock, *recordingDispatcher) {
	t.Helper()
	clock := newFakeClock()
	dispatcher := &recordingDispatcher{}
	cfg := DefaultConfig()
	cfg.Clock = clock.Now
	return NewStore(cfg, dispatcher), clock, dispatcher
}

func TestCreateAssignsIDAndTier(t *testing.T) {
	store, _, dispatcher := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "u1", "не работает почта", "Корпоративная почта", domain.SeverityMedium)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := fmt.Sprintf("TCK-%s-1001", "260828"); first.ID != want {
		t.Fatalf("id = %q, want %q", first.ID, want)
	}
	if first.AssignedTier != domain.TierFirst || first.Priority != domain.PriorityMedium {
		t.Fatalf("tier/priority = %s/%s, want first line, medium", first.AssignedTier, first.Priority)
	}
	if first.Status != domain.TicketStatusCreated {
		t.Fatalf("status = %s", first.Status)
	}
	if len(first.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(first.History))
	}

	second, err := store.Create(ctx, "u1", "забыл пароль", "Проблемы с доступом", domain.SeverityHigh)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := fmt.Sprintf("TCK-%s-1002", "260828"); second.ID != want {
		t.Fatalf("id = %q, want %q", second.ID, want)
	}
	if second.AssignedTier != domain.TierSecond || second.Priority != domain.PriorityHigh {
		t.Fatalf("urgent severity must land on the second line with high priority, got %s/%s",
			second.AssignedTier, second.Priority)
	}

	got := dispatcher.types()
	if len(got) != 2 || got[0] != events.EventTicketCreated || got[1] != events.EventTicketCreated {
		t.Fatalf("published events = %v", got)
	}
}

func TestGetStatusAdvancesOneStepPerRead(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "u1", "ошибка в отчете", "Работа с отчетами", domain.SeverityMedium)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Before the first threshold nothing moves.
	clock.Advance(10 * time.Second)
	ticket, _ := store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusCreated {
		t.Fatalf("status = %s, want created", ticket.Status)
	}

	// Far past every threshold a single read still advances only one step.
	clock.Advance(10 * time.Minute)
	ticket, _ = store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want in_progress", ticket.Status)
	}
	ticket, _ = store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusAwaitingInfo {
		t.Fatalf("status = %s, want awaiting_info", ticket.Status)
	}
	ticket, _ = store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusResolved {
		t.Fatalf("status = %s, want resolved", ticket.Status)
	}

	// Resolved is terminal for the automatic clock.
	ticket, _ = store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusResolved {
		t.Fatalf("status = %s, resolved must be stable", ticket.Status)
	}
	if len(ticket.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(ticket.History))
	}
}

func TestStatusNeverMovesBackward(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)

	lastRank := created.Status.Rank()
	for i := 0; i < 20; i++ {
		clock.Advance(17 * time.Second)
		ticket, err := store.GetStatus(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
		if rank := ticket.Status.Rank(); rank < lastRank {
			t.Fatalf("status regressed from rank %d to %d (%s)", lastRank, rank, ticket.Status)
		} else {
			lastRank = rank
		}
	}
}

func TestGetStatusUrgentGoesToConfirmation(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "авария", "Общая техническая проблема", domain.SeverityCritical)
	clock.Advance(2 * time.Minute)
	store.GetStatus(ctx, created.ID)
	ticket, _ := store.GetStatus(ctx, created.ID)
	if ticket.Status != domain.TicketStatusAwaitingConfirmation {
		t.Fatalf("status = %s, want awaiting_confirmation for urgent severity", ticket.Status)
	}
}

func TestEscalate(t *testing.T) {
	store, _, dispatcher := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)

	escalated, err := store.Escalate(ctx, created.ID, "Ручная эскалация пользователем", domain.TierThird)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if escalated.Status != domain.TicketStatusEscalatedThird {
		t.Fatalf("status = %s", escalated.Status)
	}
	if escalated.Priority != domain.PriorityCritical {
		t.Fatalf("priority = %s, want critical", escalated.Priority)
	}
	if escalated.AssignedTier != domain.TierThird {
		t.Fatalf("tier = %s", escalated.AssignedTier)
	}
	if len(escalated.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(escalated.History))
	}

	types := dispatcher.types()
	if types[len(types)-1] != events.EventTicketEscalated {
		t.Fatalf("last event = %s, want ticket_escalated", types[len(types)-1])
	}
}

func TestReEscalateSameTierGrowsHistory(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)

	first, err := store.Escalate(ctx, created.ID, "Ручная эскалация пользователем", domain.TierSecond)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	second, err := store.Escalate(ctx, created.ID, "Повторная эскалация", domain.TierSecond)
	if err != nil {
		t.Fatalf("repeat Escalate: %v", err)
	}

	if len(second.History) <= len(first.History) {
		t.Fatalf("history length %d after repeat, want > %d", len(second.History), len(first.History))
	}
	if second.Status != domain.TicketStatusEscalatedSecond {
		t.Fatalf("status = %s, want escalated_to_second_line", second.Status)
	}
	if second.AssignedTier != domain.TierSecond || second.Priority != domain.PriorityHigh {
		t.Fatalf("tier/priority = %s/%s after repeat escalation", second.AssignedTier, second.Priority)
	}
	if entry, ok := second.LastUpdate(); !ok || entry.Message != "Эскалация на 2-ю линию: Повторная эскалация" {
		t.Fatalf("last history entry = %+v", entry)
	}
}

func TestEscalatedTicketLeavesAutoClock(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)
	if _, err := store.Escalate(ctx, created.ID, "причина", domain.TierSecond); err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	clock.Advance(time.Hour)
	for i := 0; i < 5; i++ {
		ticket, _ := store.GetStatus(ctx, created.ID)
		if ticket.Status != domain.TicketStatusEscalatedSecond {
			t.Fatalf("status = %s, escalated ticket must not auto-advance", ticket.Status)
		}
	}
}

func TestEscalateErrors(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Escalate(ctx, "TCK-000000-9999", "причина", domain.TierSecond); !errorutil.IsCode(err, "NOT_FOUND") {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)
	if _, err := store.Escalate(ctx, created.ID, "причина", domain.SupportTier("fourth_line")); !errorutil.IsCode(err, "INVALID_ESCALATION_TARGET") {
		t.Fatalf("error = %v, want INVALID_ESCALATION_TARGET", err)
	}
}

func TestUserIndexAndActiveCount(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Create(ctx, "u1", "первая", "Общая техническая проблема", domain.SeverityMedium)
	b, _ := store.Create(ctx, "u1", "вторая", "Общая техническая проблема", domain.SeverityMedium)
	store.Create(ctx, "u2", "чужая", "Общая техническая проблема", domain.SeverityMedium)

	ids := store.ListForUser("u1")
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Fatalf("ListForUser = %v", ids)
	}
	latest, ok := store.LatestForUser("u1")
	if !ok || latest != b.ID {
		t.Fatalf("LatestForUser = %q, %v", latest, ok)
	}

	if got := store.CountActiveForUser("u1"); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
	if _, err := store.Resolve(ctx, a.ID, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := store.CountActiveForUser("u1"); got != 1 {
		t.Fatalf("active after resolve = %d, want 1", got)
	}

	total, active := store.Stats()
	if total != 3 || active != 2 {
		t.Fatalf("Stats = %d/%d, want 3/2", total, active)
	}
}

func TestGetStatusReturnsClones(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	created, _ := store.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)
	first, _ := store.GetStatus(ctx, created.ID)
	first.Problem = "изменено снаружи"
	first.History = append(first.History, domain.HistoryEntry{Message: "мусор"})

	second, _ := store.GetStatus(ctx, created.ID)
	if second.Problem != "проблема" || len(second.History) != 1 {
		t.Fatal("stored ticket mutated through a returned clone")
	}
}
