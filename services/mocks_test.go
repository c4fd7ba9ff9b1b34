package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/repository"
)

// ---- in-memory stores ----

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) UpdateFields(ctx context.Context, id string, updates bson.M) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["stripe_account_id"]; ok {
		u.StripeAccountID = v.(string)
	}
	if v, ok := updates["is_seller"]; ok {
		u.IsSeller = v.(bool)
	}
	return nil
}

func (s *fakeUserStore) PrependOrder(ctx context.Context, userID string, order models.Order) error {
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.OrderHistory = append([]models.Order{order}, u.OrderHistory...)
	return nil
}

func (s *fakeUserStore) PrependSellerGroup(ctx context.Context, sellerID string, group models.SellerOrderGroup) error {
	u, ok := s.users[sellerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProductsSold = append([]models.SellerOrderGroup{group}, u.ProductsSold...)
	return nil
}

type fakeProductStore struct {
	products map[string]*models.Product
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	s := &fakeProductStore{products: make(map[string]*models.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeProductStore) Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range s.products {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeProductStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	return int64(len(s.products)), nil
}

func (s *fakeProductStore) Create(ctx context.Context, product *models.Product) error {
	s.products[product.ID] = product
	return nil
}

func (s *fakeProductStore) Update(ctx context.Context, id string, updates bson.M) (int64, error) {
	p, ok := s.products[id]
	if !ok {
		return 0, nil
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["price"]; ok {
		p.Price = v.(int64)
	}
	if v, ok := updates["quantity"]; ok {
		p.Quantity = v.(int)
	}
	return 1, nil
}

func (s *fakeProductStore) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := s.products[id]; !ok {
		return 0, nil
	}
	delete(s.products, id)
	return 1, nil
}

func (s *fakeProductStore) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	p, ok := s.products[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if p.Quantity < amount {
		return 0, repository.ErrInsufficientStock
	}
	p.Quantity -= amount
	return p.Quantity, nil
}

type fakeCartStore struct {
	carts map[string]*models.Cart
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string]*models.Cart)}
}

func (s *fakeCartStore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	// Copy items so callers mutate their own view, like a deserialized blob.
	copied := *cart
	copied.Items = append([]models.CartEntry(nil), cart.Items...)
	return &copied, nil
}

func (s *fakeCartStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	copied := *cart
	copied.Items = append([]models.CartEntry(nil), cart.Items...)
	s.carts[cart.UserID] = &copied
	return nil
}

func (s *fakeCartStore) DeleteCart(ctx context.Context, userID string) error {
	delete(s.carts, userID)
	return nil
}

// ---- ledger, gateway, publisher ----

type fakeLedger struct {
	payments map[string]*models.Payment // by order id
	statuses []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{payments: make(map[string]*models.Payment)}
}

func (l *fakeLedger) Create(ctx context.Context, payment *models.Payment) error {
	l.payments[payment.OrderID] = payment
	return nil
}

func (l *fakeLedger) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	if p, ok := l.payments[orderID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (l *fakeLedger) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	for _, p := range l.payments {
		if p.StripeSessionID != nil && *p.StripeSessionID == sessionID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (l *fakeLedger) UpdateStatus(ctx context.Context, orderID string, updates map[string]interface{}) error {
	if status, ok := updates["status"].(string); ok {
		l.statuses = append(l.statuses, status)
		if p, ok := l.payments[orderID]; ok {
			p.Status = status
		}
	}
	return nil
}

func (l *fakeLedger) IncrementTransferCount(ctx context.Context, orderID string) error {
	return nil
}

type transferCall struct {
	Amount      int64
	Destination string
	GroupTag    string
}

type fakeGateway struct {
	sessions    map[string]*CheckoutSessionInfo
	sessionTags map[string]string
	transfers   []transferCall
	transferErr error
	sessionErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions:    make(map[string]*CheckoutSessionInfo),
		sessionTags: make(map[string]string),
	}
}

func (g *fakeGateway) addPaidSession(id string) {
	g.sessions[id] = &CheckoutSessionInfo{ID: id, PaymentStatus: "paid"}
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, items []SessionLineItem, groupTag, successURL, cancelURL string) (*CheckoutSessionInfo, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	info := &CheckoutSessionInfo{
		ID:            fmt.Sprintf("cs_test_%d", len(g.sessions)+1),
		URL:           "https://gateway.example/session",
		PaymentStatus: "unpaid",
	}
	g.sessions[info.ID] = info
	g.sessionTags[info.ID] = groupTag
	return info, nil
}

func (g *fakeGateway) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSessionInfo, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	if s, ok := g.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, errors.New("no such session")
}

func (g *fakeGateway) CreateTransfer(ctx context.Context, amount int64, destination, groupTag string) (string, error) {
	if g.transferErr != nil {
		return "", g.transferErr
	}
	g.transfers = append(g.transfers, transferCall{Amount: amount, Destination: destination, GroupTag: groupTag})
	return fmt.Sprintf("tr_test_%d", len(g.transfers)), nil
}

func (g *fakeGateway) CreateExpressAccount(ctx context.Context) (string, error) {
	return "acct_test_1", nil
}

func (g *fakeGateway) CreateAccountLink(ctx context.Context, accountID, redirectURL string) (string, error) {
	return "https://gateway.example/onboarding/" + accountID, nil
}

func (g *fakeGateway) AccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	return true, nil
}

type fakePublisher struct {
	events []models.OrderEvent
	err    error
}

func (p *fakePublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
