package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/paging"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Item is one audit event with actor and target names resolved.
type Item struct {
	audit.Event
	ActorName  string `json:"actorName,omitempty"`
	TargetName string `json:"targetName,omitempty"`
}

func itemID(it Item) primitive.ObjectID { return it.ID }

// ServeList handles GET /api/audit?category=&eventType=&since=&userId=&cursor=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}

	filter := audit.QueryFilter{
		CompanyID: &a.CompanyID,
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "eventType")),
		Before:    paging.ParseCursor(r),
	}
	switch filter.Category {
	case "", audit.CategoryAuth, audit.CategoryAdmin:
	default:
		h.ErrLog.Write(w, r, apperr.NewValidation("unknown category"))
		return
	}
	if s := query.Get(r, "since"); s != "" {
		t, err := parseSince(s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.NewValidation("since must be a date (2006-01-02) or RFC 3339 time"))
			return
		}
		filter.Since = &t
	}
	if s := query.Get(r, "userId"); s != "" {
		uid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.NewValidation("invalid userId"))
			return
		}
		filter.UserID = &uid
	}

	limit := paging.ParseLimit(r)
	filter.Limit = int64(limit + 1)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to load audit events", err)
		return
	}

	items := make([]Item, 0, len(events))
	for _, e := range events {
		items = append(items, Item{Event: e})
	}
	page := paging.Trim(items, limit, itemID)
	h.resolveNames(ctx, page.Items)

	respond.OK(w, page)
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	return t.UTC(), err
}

// resolveNames fills in actor and target names. A lookup failure leaves
// the raw IDs, which the events carry anyway.
func (h *Handler) resolveNames(ctx context.Context, items []Item) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; !ok {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, it := range items {
		add(it.ActorID)
		add(it.UserID)
	}
	if len(ids) == 0 {
		return
	}

	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to resolve audit user names", zap.Error(err))
		return
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	for i := range items {
		if items[i].ActorID != nil {
			items[i].ActorName = names[*items[i].ActorID]
		}
		if items[i].UserID != nil {
			items[i].TargetName = names[*items[i].UserID]
		}
	}
}
