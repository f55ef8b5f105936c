package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

// StatsReport aggregates process-wide counters for administrators.
type StatsReport struct {
	TotalTickets  int              `json:"total_tickets"`
	ActiveTickets int              `json:"active_tickets"`
	FAQEntries    int              `json:"faq_entries"`
	Counters      map[string]int64 `json:"counters"`
}

// Text renders the report for the chat surface.
func (r *StatsReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Статистика ассистента.\n\n")
	fmt.Fprintf(&b, "Всего обращений: %d\n", r.TotalTickets)
	fmt.Fprintf(&b, "Активных обращений: %d\n", r.ActiveTickets)
	fmt.Fprintf(&b, "Записей в базе знаний: %d\n", r.FAQEntries)

	if len(r.Counters) > 0 {
		b.WriteString("\nСчетчики:\n")
		names := make([]string, 0, len(r.Counters))
		for name := range r.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "• %s: %d\n", name, r.Counters[name])
		}
	}
	return b.String()
}

// Stats returns usage statistics. Restricted to the admin allow-list.
func (e *Engine) Stats(userID string) (*StatsReport, error) {
	if !e.IsAdmin(userID) {
		return nil, errorutil.NewUnauthorized("admin access required")
	}
	total, active := e.tickets.Stats()
	return &StatsReport{
		TotalTickets:  total,
		ActiveTickets: active,
		FAQEntries:    e.kb.Size(),
		Counters:      e.metrics.Snapshot(),
	}, nil
}

// RefreshKnowledgeBase acknowledges a knowledge-base refresh request. The
// table is static in this build, so the operation reports the current size
// without reloading anything.
func (e *Engine) RefreshKnowledgeBase(userID string) (string, error) {
	if !e.IsAdmin(userID) {
		return "", errorutil.NewUnauthorized("admin access required")
	}
	return fmt.Sprintf("База знаний актуальна: %d записей", e.kb.Size()), nil
}
