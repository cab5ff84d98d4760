package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/famiglia/ops-console/internal/audit"
	"github.com/famiglia/ops-console/internal/orders"
	"github.com/famiglia/ops-console/internal/payments"
	"github.com/famiglia/ops-console/internal/users"
	"github.com/famiglia/ops-console/pkg/db/models"
	"github.com/famiglia/ops-console/pkg/enums"
	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	activeUserWindow = 30 * 24 * time.Hour
	topActionsShown  = 10
	visitorRollupCap = 50
	recentUsersShown = 50
	userOrdersShown  = 5
	userEventsShown  = 20

	// NoAction is shown when no audit event matched.
	NoAction = "N/A"

	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

type auditReader interface {
	DistinctActors(ctx context.Context, filter audit.Filter) (int64, error)
	CountEvents(ctx context.Context, filter audit.Filter) (int64, error)
	TopActions(ctx context.Context, filter audit.Filter, n int) ([]audit.ActionCount, error)
	AnonymousRollup(ctx context.Context, window audit.Window, limit int) ([]audit.VisitorActivity, error)
	RecentForUser(ctx context.Context, userID string, limit int) ([]audit.Event, error)
}

type orderReader interface {
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatusSince(ctx context.Context, status enums.OrderStatus, since time.Time) (int64, error)
	StatusDistribution(ctx context.Context) ([]orders.StatusCount, error)
	AbandonedCarts(ctx context.Context, limit int) ([]orders.CartSummary, error)
	RecentByUser(ctx context.Context, userID int64, limit int) ([]orders.OrderSummary, error)
}

type paymentReader interface {
	Total(ctx context.Context) (decimal.Decimal, error)
	TotalSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	PointsSince(ctx context.Context, since time.Time) ([]payments.Point, error)
}

type userReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ListRecent(ctx context.Context, limit int) ([]models.User, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceParams bundles the stores and ambient dependencies of the aggregator.
type ServiceParams struct {
	Audit      auditReader
	Orders     orderReader
	Payments   paymentReader
	Users      userReader
	Relational Pinger
	Documents  Pinger
	Location   *time.Location
	Logger     *logger.Logger
	Metrics    *metrics.WidgetMetrics
	Now        func() time.Time
}

// Service computes every console report on demand. Nothing is cached.
type Service struct {
	audit      auditReader
	orders     orderReader
	payments   paymentReader
	users      userReader
	relational Pinger
	documents  Pinger
	loc        *time.Location
	logg       *logger.Logger
	metrics    *metrics.WidgetMetrics
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Audit == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	svc := &Service{
		audit:      params.Audit,
		orders:     params.Orders,
		payments:   params.Payments,
		users:      params.Users,
		relational: params.Relational,
		documents:  params.Documents,
		loc:        params.Location,
		logg:       params.Logger,
		metrics:    params.Metrics,
		now:        params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Overview is the landing report.
type Overview struct {
	TotalRevenue    decimal.Decimal      `json:"totalRevenue"`
	OrdersThisMonth int64                `json:"ordersThisMonth"`
	ActiveUsers     int64                `json:"activeUsers"`
	ConversionRate  float64              `json:"conversionRate"`
	MonthlyRevenue  []MonthlyRevenue     `json:"monthlyRevenue"`
	OrderStatus     []orders.StatusCount `json:"orderStatus"`
	Degraded        []string             `json:"degraded"`
}

// Overview computes revenue, monthly orders, 30-day active users, conversion,
// the six-month revenue chart and the status distribution.
func (s *Service) Overview(ctx context.Context) *Overview {
	now := s.now()
	monthStart := StartOfMonth(now, s.loc)
	active := audit.Trailing(now, activeUserWindow)

	out := &Overview{
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: []MonthlyRevenue{},
		OrderStatus:    []orders.StatusCount{},
	}
	c := s.collect(ctx)

	c.run("total_revenue", func(ctx context.Context) error {
		total, err := s.payments.Total(ctx)
		if err == nil {
			out.TotalRevenue = total
		}
		return err
	})
	c.run("orders_this_month", func(ctx context.Context) error {
		count, err := s.orders.CountCreatedSince(ctx, monthStart)
		if err == nil {
			out.OrdersThisMonth = count
		}
		return err
	})
	c.run("active_users", func(ctx context.Context) error {
		// Identities are summed per kind, so a visitor who later signed in counts twice.
		registered, err := s.audit.DistinctActors(ctx, audit.Filter{Window: active, Kind: audit.KindRegistered})
		if err != nil {
			return err
		}
		anonymous, err := s.audit.DistinctActors(ctx, audit.Filter{Window: active, Kind: audit.KindAnonymous})
		if err != nil {
			return err
		}
		out.ActiveUsers = registered + anonymous
		return nil
	})
	c.run("monthly_revenue", func(ctx context.Context) error {
		points, err := s.payments.PointsSince(ctx, now.In(s.loc).AddDate(0, -revenueMonths, 0))
		if err == nil {
			out.MonthlyRevenue = BucketMonthlyRevenue(points, s.loc)
		}
		return err
	})
	c.run("order_status", func(ctx context.Context) error {
		dist, err := s.orders.StatusDistribution(ctx)
		if err == nil && dist != nil {
			out.OrderStatus = dist
		}
		return err
	})

	out.Degraded = c.wait()
	out.ConversionRate = ConversionRate(out.OrdersThisMonth, out.ActiveUsers)
	return out
}

// Sales is the month-to-date sales and cart-recovery report.
type Sales struct {
	RevenueThisMonth   decimal.Decimal      `json:"revenueThisMonth"`
	DeliveredThisMonth int64                `json:"deliveredThisMonth"`
	AbandonedCartCount int                  `json:"abandonedCartCount"`
	AbandonedCarts     []orders.CartSummary `json:"abandonedCarts"`
	Degraded           []string             `json:"degraded"`
}

func (s *Service) Sales(ctx context.Context) *Sales {
	monthStart := StartOfMonth(s.now(), s.loc)
	out := &Sales{
		RevenueThisMonth: decimal.Zero,
		AbandonedCarts:   []orders.CartSummary{},
	}
	c := s.collect(ctx)

	c.run("revenue_this_month", func(ctx context.Context) error {
		total, err := s.payments.TotalSince(ctx, monthStart)
		if err == nil {
			out.RevenueThisMonth = total
		}
		return err
	})
	c.run("delivered_this_month", func(ctx context.Context) error {
		count, err := s.orders.CountByStatusSince(ctx, enums.OrderStatusDelivered, monthStart)
		if err == nil {
			out.DeliveredThisMonth = count
		}
		return err
	})
	c.run("abandoned_carts", func(ctx context.Context) error {
		carts, err := s.orders.AbandonedCarts(ctx, orders.MaxAbandonedCarts)
		if err == nil && carts != nil {
			out.AbandonedCarts = carts
		}
		return err
	})

	out.Degraded = c.wait()
	out.AbandonedCartCount = len(out.AbandonedCarts)
	return out
}

// AnonymousReport summarises visitors that never signed in.
type AnonymousReport struct {
	DistinctVisitors    int64                   `json:"distinctVisitors"`
	TotalEvents         int64                   `json:"totalEvents"`
	AvgEventsPerVisitor int64                   `json:"avgEventsPerVisitor"`
	TopAction           string                  `json:"topAction"`
	TopActions          []audit.ActionCount     `json:"topActions"`
	Visitors            []audit.VisitorActivity `json:"visitors"`
	Degraded            []string                `json:"degraded"`
}

func (s *Service) Anonymous(ctx context.Context) *AnonymousReport {
	filter := audit.Filter{Kind: audit.KindAnonymous}
	out := &AnonymousReport{
		TopAction:  NoAction,
		TopActions: []audit.ActionCount{},
		Visitors:   []audit.VisitorActivity{},
	}
	c := s.collect(ctx)

	c.run("anonymous_visitors", func(ctx context.Context) error {
		count, err := s.audit.DistinctActors(ctx, filter)
		if err == nil {
			out.DistinctVisitors = count
		}
		return err
	})
	c.run("anonymous_events", func(ctx context.Context) error {
		count, err := s.audit.CountEvents(ctx, filter)
		if err == nil {
			out.TotalEvents = count
		}
		return err
	})
	c.run("anonymous_top_actions", func(ctx context.Context) error {
		top, err := s.audit.TopActions(ctx, filter, topActionsShown)
		if err == nil && top != nil {
			out.TopActions = top
		}
		return err
	})
	c.run("anonymous_rollup", func(ctx context.Context) error {
		rows, err := s.audit.AnonymousRollup(ctx, audit.Window{}, visitorRollupCap)
		if err == nil && rows != nil {
			out.Visitors = rows
		}
		return err
	})

	out.Degraded = c.wait()
	out.AvgEventsPerVisitor = averagePer(out.TotalEvents, out.DistinctVisitors)
	out.TopAction = topActionOf(out.TopActions)
	return out
}

// UsersReport lists recent registered users and their audit activity.
type UsersReport struct {
	Users            []users.UserDTO     `json:"users"`
	TotalUsers       int64               `json:"totalUsers"`
	TotalEvents      int64               `json:"totalEvents"`
	AvgEventsPerUser int64               `json:"avgEventsPerUser"`
	TopAction        string              `json:"topAction"`
	TopActions       []audit.ActionCount `json:"topActions"`
	Degraded         []string            `json:"degraded"`
}

// Users restricts audit counts to ids that exist in the relational store, so
// events of deleted accounts are ignored.
func (s *Service) Users(ctx context.Context) *UsersReport {
	out := &UsersReport{
		Users:      []users.UserDTO{},
		TopAction:  NoAction,
		TopActions: []audit.ActionCount{},
	}
	var (
		ids       []string
		idsLoaded bool
	)
	c := s.collect(ctx)

	c.run("recent_users", func(ctx context.Context) error {
		list, err := s.users.ListRecent(ctx, recentUsersShown)
		if err == nil {
			out.Users = users.FromModels(list)
		}
		return err
	})
	c.run("registered_users", func(ctx context.Context) error {
		list, err := s.users.ListIDs(ctx)
		if err == nil {
			ids, idsLoaded = list, true
			out.TotalUsers = int64(len(list))
		}
		return err
	})
	degraded := c.wait()

	c = s.collect(ctx)
	if !idsLoaded {
		c.skip("registered_events", "registered_top_actions")
	} else {
		if ids == nil {
			ids = []string{}
		}
		filter := audit.Filter{Kind: audit.KindRegistered, ActorIDs: ids}
		c.run("registered_events", func(ctx context.Context) error {
			count, err := s.audit.CountEvents(ctx, filter)
			if err == nil {
				out.TotalEvents = count
			}
			return err
		})
		c.run("registered_top_actions", func(ctx context.Context) error {
			top, err := s.audit.TopActions(ctx, filter, topActionsShown)
			if err == nil && top != nil {
				out.TopActions = top
			}
			return err
		})
	}

	out.Degraded = mergeDegraded(degraded, c.wait())
	out.AvgEventsPerUser = averagePer(out.TotalEvents, out.TotalUsers)
	out.TopAction = topActionOf(out.TopActions)
	return out
}

// UserDetail is one user's profile with recent orders and audit trail.
type UserDetail struct {
	User     *users.UserDTO        `json:"user"`
	Orders   []orders.OrderSummary `json:"orders"`
	Events   []audit.Event         `json:"events"`
	Degraded []string              `json:"degraded"`
}

// UserDetail returns NOT_FOUND for an unknown id. The profile is required;
// orders and events degrade independently.
func (s *Service) UserDetail(ctx context.Context, id int64) (*UserDetail, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	out := &UserDetail{
		User:   users.FromModel(user),
		Orders: []orders.OrderSummary{},
		Events: []audit.Event{},
	}
	c := s.collect(ctx)

	c.run("user_orders", func(ctx context.Context) error {
		list, err := s.orders.RecentByUser(ctx, id, userOrdersShown)
		if err == nil && list != nil {
			out.Orders = list
		}
		return err
	})
	c.run("user_events", func(ctx context.Context) error {
		events, err := s.audit.RecentForUser(ctx, strconv.FormatInt(id, 10), userEventsShown)
		if err == nil && events != nil {
			out.Events = events
		}
		return err
	})

	out.Degraded = c.wait()
	return out, nil
}

// Settings reports store connectivity.
type Settings struct {
	Relational string    `json:"relational"`
	Documents  string    `json:"documents"`
	CheckedAt  time.Time `json:"checkedAt"`
}

func (s *Service) Settings(ctx context.Context) *Settings {
	out := &Settings{CheckedAt: s.now().UTC()}
	var g errgroup.Group
	g.Go(func() error {
		out.Relational = s.connectivity(ctx, "relational", s.relational)
		return nil
	})
	g.Go(func() error {
		out.Documents = s.connectivity(ctx, "documents", s.documents)
		return nil
	})
	_ = g.Wait()
	return out
}

func (s *Service) connectivity(ctx context.Context, store string, p Pinger) string {
	if p == nil {
		return StatusDisconnected
	}
	if err := p.Ping(ctx); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "store", store), "store ping failed", err)
		return StatusDisconnected
	}
	return StatusConnected
}

func topActionOf(top []audit.ActionCount) string {
	if len(top) == 0 || top[0].Action == "" {
		return NoAction
	}
	return top[0].Action
}

func mergeDegraded(lists ...[]string) []string {
	out := []string{}
	for _, list := range lists {
		out = append(out, list...)
	}
	sort.Strings(out)
	return out
}

// collector runs widget reads concurrently. A failed widget keeps its neutral
// value and never cancels its siblings.
type collector struct {
	svc      *Service
	ctx      context.Context
	group    errgroup.Group
	mu       sync.Mutex
	degraded []string
}

func (s *Service) collect(ctx context.Context) *collector {
	return &collector{svc: s, ctx: ctx}
}

func (c *collector) run(widget string, read func(ctx context.Context) error) {
	c.group.Go(func() error {
		start := time.Now()
		err := read(c.ctx)
		c.svc.metrics.ObserveDuration(widget, time.Since(start))
		if err != nil {
			c.fail(widget, err)
		}
		return nil
	})
}

// skip marks widgets degraded without reading, when an input they need failed.
func (c *collector) skip(widgets ...string) {
	for _, widget := range widgets {
		c.fail(widget, fmt.Errorf("%s: prerequisite unavailable", widget))
	}
}

func (c *collector) fail(widget string, err error) {
	ctx := c.svc.logg.WithField(c.ctx, "widget", widget)
	c.svc.logg.WarnErr(ctx, "dashboard widget degraded", err)
	c.svc.metrics.IncDegraded(widget)

	c.mu.Lock()
	c.degraded = append(c.degraded, widget)
	c.mu.Unlock()
}

func (c *collector) wait() []string {
	_ = c.group.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]string{}, c.degraded...)
	sort.Strings(out)
	return out
}
