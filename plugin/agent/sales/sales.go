// Package sales answers customer questions and records new leads.
package sales

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/store"
)

// Store is the slice of the ERP store the sales agent reads and writes.
type Store interface {
	ListCustomers(ctx context.Context) ([]*store.Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
	CreateLead(ctx context.Context, create *store.Lead) (*store.Lead, error)
}

var (
	countPattern = regexp.MustCompile(`\bhow many customers?\b`)
	leadPattern  = regexp.MustCompile(`(?i)\blead\s+(.+?)\s+(\S+@\S+)\s*$`)
)

const leadUsage = "Could not parse lead. Try: create lead <name> <email>"

type Agent struct {
	store Store
	now   func() time.Time
}

func New(s Store) *Agent {
	return &Agent{store: s, now: time.Now}
}

func (*Agent) Module() agent.Module {
	return agent.ModuleSales
}

func (a *Agent) ProcessRequest(ctx context.Context, text string) (agent.Result, error) {
	if countPattern.MatchString(agent.NormalizeText(text)) {
		count, err := a.store.CountCustomers(ctx)
		if err != nil {
			return agent.Result{}, fmt.Errorf("failed to count customers: %w", err)
		}
		return agent.Text(fmt.Sprintf("We have %d customers.", count)), nil
	}

	customers, err := a.store.ListCustomers(ctx)
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to list customers: %w", err)
	}
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{c.ID, c.Name, c.Email, c.Phone})
	}
	return agent.Table([]string{"id", "name", "email", "phone"}, rows), nil
}

// ParseWrite reports whether text fits the lead grammar. Leads carry no amount.
func ParseWrite(text string) (agent.WriteIntent, bool) {
	if !leadPattern.MatchString(strings.TrimSpace(text)) {
		return agent.WriteIntent{}, false
	}
	return agent.WriteIntent{Operation: agent.OperationCreateLead}, true
}

func (a *Agent) Write(ctx context.Context, text string) (agent.Result, error) {
	m := leadPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return agent.Error(leadUsage), nil
	}
	name, email := strings.TrimSpace(m[1]), strings.TrimRight(m[2], ".,;")
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return agent.Error(leadUsage), nil
	}

	lead, err := a.store.CreateLead(ctx, &store.Lead{
		CustomerName: name,
		ContactEmail: email,
		Message:      text,
		Status:       "new",
		CreatedAt:    a.now().Unix(),
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return agent.Text(fmt.Sprintf("Lead #%d created for %s (%s).", lead.ID, lead.CustomerName, lead.ContactEmail)), nil
}
