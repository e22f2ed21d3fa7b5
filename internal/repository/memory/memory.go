// Package memory implements repository.Store with plain maps. It backs the
// engine tests and the "memory" database driver used for local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	items      map[int32]domain.Item
	components []domain.ItemComponent
	movements  []domain.StockMovement
	orders     map[int32]domain.Order
	lines      map[int32]domain.OrderLine

	nextItemID     int32
	nextMovementID int32
	nextOrderID    int32
	nextLineID     int32
}

func NewStore() *Store {
	return &Store{
		items:  make(map[int32]domain.Item),
		orders: make(map[int32]domain.Order),
		lines:  make(map[int32]domain.OrderLine),
	}
}

func (s *Store) Items() repository.ItemRepository              { return (*itemRepo)(s) }
func (s *Store) Movements() repository.StockMovementRepository { return (*movementRepo)(s) }
func (s *Store) Orders() repository.OrderRepository            { return (*orderRepo)(s) }

// WithinTx serializes transactions behind txMu and restores a snapshot when
// fn fails, so a failed transition leaves no partial writes behind.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	items      map[int32]domain.Item
	components []domain.ItemComponent
	movements  []domain.StockMovement
	orders     map[int32]domain.Order
	lines      map[int32]domain.OrderLine

	nextItemID, nextMovementID, nextOrderID, nextLineID int32
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		items:          make(map[int32]domain.Item, len(s.items)),
		components:     append([]domain.ItemComponent(nil), s.components...),
		movements:      append([]domain.StockMovement(nil), s.movements...),
		orders:         make(map[int32]domain.Order, len(s.orders)),
		lines:          make(map[int32]domain.OrderLine, len(s.lines)),
		nextItemID:     s.nextItemID,
		nextMovementID: s.nextMovementID,
		nextOrderID:    s.nextOrderID,
		nextLineID:     s.nextLineID,
	}
	for id, it := range s.items {
		snap.items[id] = it
	}
	for id, o := range s.orders {
		snap.orders[id] = o
	}
	for id, l := range s.lines {
		snap.lines[id] = l
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = snap.items
	s.components = snap.components
	s.movements = snap.movements
	s.orders = snap.orders
	s.lines = snap.lines
	s.nextItemID = snap.nextItemID
	s.nextMovementID = snap.nextMovementID
	s.nextOrderID = snap.nextOrderID
	s.nextLineID = snap.nextLineID
}

// --- items ---

type itemRepo Store

func (r *itemRepo) Create(ctx context.Context, item *domain.Item) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	if item.CreatedOn.IsZero() {
		item.CreatedOn = time.Now().UTC()
	}
	s.items[item.ID] = *item
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("item", id)
	}
	it.Components = s.componentsOf(id)
	return &it, nil
}

func (r *itemRepo) GetBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.SKU == sku {
			it.Components = s.componentsOf(it.ID)
			return &it, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "item sku " + sku}
}

func (r *itemRepo) List(ctx context.Context, page, pageSize int32) ([]domain.Item, int32, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		all = append(all, it)
	}
	sort.Slice(all, func(i, j int) bool { return strings.Compare(all[i].SKU, all[j].SKU) < 0 })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r *itemRepo) AddComponent(ctx context.Context, comp *domain.ItemComponent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.components {
		if c.ParentID == comp.ParentID && c.ChildID == comp.ChildID {
			s.components[i].Quantity = comp.Quantity
			return nil
		}
	}
	s.components = append(s.components, *comp)
	return nil
}

func (r *itemRepo) RemoveComponent(ctx context.Context, parentID, childID int32) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.components {
		if c.ParentID == parentID && c.ChildID == childID {
			s.components = append(s.components[:i], s.components[i+1:]...)
			return nil
		}
	}
	return domain.NewNotFoundError("component", childID)
}

func (r *itemRepo) ListComponents(ctx context.Context, parentID int32) ([]domain.ItemComponent, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.componentsOf(parentID), nil
}

func (r *itemRepo) ListAllComponents(ctx context.Context) ([]domain.ItemComponent, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ItemComponent(nil), s.components...), nil
}

func (s *Store) componentsOf(parentID int32) []domain.ItemComponent {
	var comps []domain.ItemComponent
	for _, c := range s.components {
		if c.ParentID == parentID {
			comps = append(comps, c)
		}
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].ChildID < comps[j].ChildID })
	return comps
}

// --- stock movements ---

type movementRepo Store

func (r *movementRepo) Create(ctx context.Context, mv *domain.StockMovement) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMovementID++
	mv.ID = s.nextMovementID
	if mv.CreatedOn.IsZero() {
		mv.CreatedOn = time.Now().UTC()
	}
	s.movements = append(s.movements, *mv)
	return nil
}

func (r *movementRepo) OnHand(ctx context.Context, itemID int32) (int32, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int32
	for _, mv := range s.movements {
		if mv.ItemID == itemID {
			sum += mv.Delta
		}
	}
	return sum, nil
}

func (r *movementRepo) ListByItem(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.StockMovement
	for _, mv := range s.movements {
		if mv.ItemID == itemID {
			all = append(all, mv)
		}
	}
	// newest first, mirroring the postgres ordering
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r *movementRepo) ListByOrder(ctx context.Context, orderID int32, reason domain.MovementReason) ([]domain.StockMovement, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StockMovement
	for _, mv := range s.movements {
		if mv.OrderID != nil && *mv.OrderID == orderID && mv.Reason == reason {
			out = append(out, mv)
		}
	}
	return out, nil
}

// --- orders ---

type orderRepo Store

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrderID++
	order.ID = s.nextOrderID
	order.Version = 1
	now := time.Now().UTC()
	order.CreatedOn = now
	order.UpdatedOn = now
	stored := *order
	stored.Lines = nil
	s.orders[order.ID] = stored
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}
	o.Lines = s.linesOf(id)
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.NewNotFoundError("order", order.ID)
	}
	if stored.Version != order.Version {
		return domain.ErrConflict
	}
	stored.Status = order.Status
	stored.Version++
	stored.UpdatedOn = time.Now().UTC()
	s.orders[order.ID] = stored
	order.Version = stored.Version
	return nil
}

func (r *orderRepo) List(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.Order
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		if customerID != 0 && o.CustomerID != customerID {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r *orderRepo) AddLine(ctx context.Context, line *domain.OrderLine) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[line.OrderID]; !ok {
		return domain.NewNotFoundError("order", line.OrderID)
	}
	s.nextLineID++
	line.ID = s.nextLineID
	s.lines[line.ID] = *line
	return nil
}

func (r *orderRepo) GetLine(ctx context.Context, lineID int32) (*domain.OrderLine, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lines[lineID]
	if !ok {
		return nil, domain.NewNotFoundError("order line", lineID)
	}
	return &l, nil
}

func (r *orderRepo) UpdateLine(ctx context.Context, line *domain.OrderLine) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[line.ID]; !ok {
		return domain.NewNotFoundError("order line", line.ID)
	}
	s.lines[line.ID] = *line
	return nil
}

func (r *orderRepo) DeleteLine(ctx context.Context, lineID int32) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[lineID]; !ok {
		return domain.NewNotFoundError("order line", lineID)
	}
	delete(s.lines, lineID)
	return nil
}

func (r *orderRepo) ListCommittedLines(ctx context.Context, start, end time.Time, excludeOrderID int32) ([]domain.CommittedLine, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CommittedLine
	for _, o := range s.orders {
		if !o.Status.Committed() || o.ID == excludeOrderID {
			continue
		}
		oStart, oEnd := o.EffectiveWindow()
		if !(oStart.Before(end) && oEnd.After(start)) {
			continue
		}
		for _, l := range s.linesOf(o.ID) {
			out = append(out, domain.CommittedLine{ItemID: l.ItemID, Quantity: l.Quantity})
		}
	}
	return out, nil
}

func (r *orderRepo) ListStaleDrafts(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.Status == domain.OrderStatusDraft && o.UpdatedOn.Before(olderThan) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Order, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.Status == domain.OrderStatusCheckedOut && o.DueDate.Before(asOf) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) linesOf(orderID int32) []domain.OrderLine {
	var lines []domain.OrderLine
	for _, l := range s.lines {
		if l.OrderID == orderID {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

func paginate[T any](all []T, page, pageSize int32) []T {
	if page < 1 || pageSize < 1 {
		return all
	}
	start := int((page - 1) * pageSize)
	if start >= len(all) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
