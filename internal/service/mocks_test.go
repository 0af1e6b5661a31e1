package service

import (
	"context"
	"fmt"
	"time"

	"teashop/internal/model"
	"teashop/internal/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hand-rolled fakes with overridable function fields. Methods without an
// override return the interface's zero-value happy path.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- pricing repositories ---

type fakeTaxRepo struct {
	findActiveFn func(asOf time.Time) (*model.TaxRate, error)
	created      []*model.TaxRate
}

func (f *fakeTaxRepo) Create(_ context.Context, rate *model.TaxRate) error {
	f.created = append(f.created, rate)
	return nil
}

func (f *fakeTaxRepo) List(_ context.Context) ([]model.TaxRate, error) { return nil, nil }

func (f *fakeTaxRepo) FindActive(_ context.Context, asOf time.Time) (*model.TaxRate, error) {
	if f.findActiveFn != nil {
		return f.findActiveFn(asOf)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeShippingRepo struct {
	findActiveFn func(asOf time.Time) (*model.ShippingFee, error)
}

func (f *fakeShippingRepo) Create(_ context.Context, _ *model.ShippingFee) error { return nil }

func (f *fakeShippingRepo) List(_ context.Context) ([]model.ShippingFee, error) { return nil, nil }

func (f *fakeShippingRepo) FindActive(_ context.Context, asOf time.Time) (*model.ShippingFee, error) {
	if f.findActiveFn != nil {
		return f.findActiveFn(asOf)
	}
	return nil, gorm.ErrRecordNotFound
}

// --- cart repository ---

type fakeCartRepo struct {
	cart        *model.Cart
	addItemFn   func(cartID, productID uuid.UUID, quantity int) error
	updatedQty  map[uuid.UUID]int
	deletedItem []uuid.UUID
	cleared     bool
}

func (f *fakeCartRepo) GetOrCreateByUser(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	if f.cart == nil {
		f.cart = &model.Cart{ID: uuid.New(), UserID: userID}
	}
	return f.cart, nil
}

func (f *fakeCartRepo) FindByUserWithItems(_ context.Context, _ uuid.UUID) (*model.Cart, error) {
	if f.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.cart, nil
}

func (f *fakeCartRepo) AddItem(_ context.Context, cartID, productID uuid.UUID, quantity int) error {
	if f.addItemFn != nil {
		return f.addItemFn(cartID, productID, quantity)
	}
	return nil
}

func (f *fakeCartRepo) FindItemByID(_ context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	if f.cart != nil {
		for i := range f.cart.Items {
			if f.cart.Items[i].ID == itemID {
				return &f.cart.Items[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if f.updatedQty == nil {
		f.updatedQty = map[uuid.UUID]int{}
	}
	f.updatedQty[itemID] = quantity
	for i := range f.cart.Items {
		if f.cart.Items[i].ID == itemID {
			f.cart.Items[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	f.deletedItem = append(f.deletedItem, itemID)
	items := f.cart.Items[:0]
	for i := range f.cart.Items {
		if f.cart.Items[i].ID != itemID {
			items = append(items, f.cart.Items[i])
		}
	}
	f.cart.Items = items
	return nil
}

func (f *fakeCartRepo) ClearItems(_ context.Context, _ uuid.UUID) error {
	f.cleared = true
	if f.cart != nil {
		f.cart.Items = nil
	}
	return nil
}

// --- product repository ---

type fakeProductRepo struct {
	products  map[uuid.UUID]*model.TeaProduct
	decrement func(id uuid.UUID, quantity int) (bool, error)
	clamped   []uuid.UUID
	setStock  map[uuid.UUID]int
}

func newFakeProductRepo(products ...*model.TeaProduct) *fakeProductRepo {
	m := map[uuid.UUID]*model.TeaProduct{}
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeProductRepo{products: m}
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.TeaProduct) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.TeaProduct) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TeaProduct, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.TeaProduct, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProductRepo) ListByTea(_ context.Context, _ uuid.UUID) ([]model.TeaProduct, error) {
	return nil, nil
}

func (f *fakeProductRepo) SetStock(_ context.Context, id uuid.UUID, stock int) error {
	if f.setStock == nil {
		f.setStock = map[uuid.UUID]int{}
	}
	f.setStock[id] = stock
	if p, ok := f.products[id]; ok {
		p.Stock = stock
	}
	return nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id uuid.UUID, quantity int) (bool, error) {
	if f.decrement != nil {
		return f.decrement(id, quantity)
	}
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

func (f *fakeProductRepo) ClampStockToZero(_ context.Context, id uuid.UUID) error {
	f.clamped = append(f.clamped, id)
	if p, ok := f.products[id]; ok {
		p.Stock = 0
	}
	return nil
}

// --- order repository ---

type fakeOrderRepo struct {
	orders     map[uuid.UUID]*model.Order
	createFn   func(order *model.Order) error
	statusIfFn func(id uuid.UUID, from, to string) (bool, error)
	sessionFn  func(id uuid.UUID, sessionID string) error
	deleted    []uuid.UUID
	sessions   map[uuid.UUID]string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*model.Order{}, sessions: map[uuid.UUID]string{}}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if f.createFn != nil {
		if err := f.createFn(order); err != nil {
			return err
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) FindByIDForUser(_ context.Context, id, userID uuid.UUID) (*model.Order, error) {
	if o, ok := f.orders[id]; ok && o.UserID == userID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string, extra map[string]interface{}) (bool, error) {
	if f.statusIfFn != nil {
		return f.statusIfFn(id, from, to)
	}
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if pi, ok := extra["payment_intent_id"].(string); ok {
		o.PaymentIntentID = pi
	}
	return true, nil
}

func (f *fakeOrderRepo) SetCheckoutSession(_ context.Context, id uuid.UUID, sessionID string) error {
	if f.sessionFn != nil {
		if err := f.sessionFn(id, sessionID); err != nil {
			return err
		}
	}
	f.sessions[id] = sessionID
	if o, ok := f.orders[id]; ok {
		o.CheckoutSessionID = sessionID
	}
	return nil
}

func (f *fakeOrderRepo) HardDelete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.orders, id)
	return nil
}

// --- stock movement repository ---

type fakeStockRepo struct {
	movements []*model.StockMovement
}

func (f *fakeStockRepo) Create(_ context.Context, movement *model.StockMovement) error {
	f.movements = append(f.movements, movement)
	return nil
}

func (f *fakeStockRepo) ListFlagged(_ context.Context) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if m.Flagged {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// --- user repository ---

type fakeUserRepo struct {
	users    map[uuid.UUID]*model.User
	createFn func(user *model.User) error
	updateFn func(user *model.User) error
	deleted  []uuid.UUID
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := map[uuid.UUID]*model.User{}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createFn != nil {
		if err := f.createFn(user); err != nil {
			return err
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByVerificationToken(_ context.Context, token uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.VerificationToken == token {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if f.updateFn != nil {
		if err := f.updateFn(user); err != nil {
			return err
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return nil
}

// --- tea repository ---

type fakeTeaRepo struct {
	teas        map[uuid.UUID]*model.Tea
	favorites   map[uuid.UUID]int64
	favoritedBy map[uuid.UUID]map[uuid.UUID]bool
	reviews     []*model.TeaReview
	reviewErr   error
}

func newFakeTeaRepo(teas ...*model.Tea) *fakeTeaRepo {
	m := map[uuid.UUID]*model.Tea{}
	for _, tea := range teas {
		if tea.ID == uuid.Nil {
			tea.ID = uuid.New()
		}
		m[tea.ID] = tea
	}
	return &fakeTeaRepo{
		teas:        m,
		favorites:   map[uuid.UUID]int64{},
		favoritedBy: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (f *fakeTeaRepo) ListPublished(_ context.Context, now time.Time, _, _ int) ([]model.Tea, int64, error) {
	var out []model.Tea
	for _, tea := range f.teas {
		if tea.PublishedAt != nil && tea.PublishedAt.Before(now) {
			out = append(out, *tea)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeTeaRepo) FindPublishedByID(_ context.Context, id uuid.UUID, now time.Time) (*model.Tea, error) {
	tea, ok := f.teas[id]
	if !ok || tea.PublishedAt == nil || !tea.PublishedAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return tea, nil
}

func (f *fakeTeaRepo) CountFavorites(_ context.Context, teaID uuid.UUID) (int64, error) {
	return f.favorites[teaID], nil
}

func (f *fakeTeaRepo) IsFavorited(_ context.Context, userID, teaID uuid.UUID) (bool, error) {
	return f.favoritedBy[teaID][userID], nil
}

func (f *fakeTeaRepo) AddFavorite(_ context.Context, userID, teaID uuid.UUID) error {
	if f.favoritedBy[teaID] == nil {
		f.favoritedBy[teaID] = map[uuid.UUID]bool{}
	}
	if !f.favoritedBy[teaID][userID] {
		f.favoritedBy[teaID][userID] = true
		f.favorites[teaID]++
	}
	return nil
}

func (f *fakeTeaRepo) RemoveFavorite(_ context.Context, userID, teaID uuid.UUID) error {
	if f.favoritedBy[teaID][userID] {
		delete(f.favoritedBy[teaID], userID)
		f.favorites[teaID]--
	}
	return nil
}

func (f *fakeTeaRepo) CreateReview(_ context.Context, review *model.TeaReview) error {
	if f.reviewErr != nil {
		return f.reviewErr
	}
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.TeaID == review.TeaID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeTeaRepo) ListReviews(_ context.Context, teaID uuid.UUID) ([]model.TeaReview, error) {
	var out []model.TeaReview
	for _, r := range f.reviews {
		if r.TeaID == teaID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeTeaRepo) HasReviewed(_ context.Context, userID, teaID uuid.UUID) (bool, error) {
	for _, r := range f.reviews {
		if r.UserID == userID && r.TeaID == teaID {
			return true, nil
		}
	}
	return false, nil
}

// --- event cache ---

type fakeCache struct {
	getErr  error
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.entries[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeCache) Key(operation, id string) string {
	return "test:" + operation + ":" + id
}

// --- payment gateway ---

type fakeGateway struct {
	createFn  func(req payment.SessionRequest) (*payment.Session, error)
	getFn     func(sessionID string) (*payment.SessionStatus, error)
	verifyFn  func(payload []byte, signature string) (*payment.WebhookEvent, error)
	lastReq   payment.SessionRequest
	createdID string
}

func (f *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.lastReq = req
	if f.createFn != nil {
		return f.createFn(req)
	}
	f.createdID = "cs_test_" + uuid.NewString()[:8]
	return &payment.Session{ID: f.createdID, URL: "https://checkout.example/" + f.createdID}, nil
}

func (f *fakeGateway) GetSession(_ context.Context, sessionID string) (*payment.SessionStatus, error) {
	if f.getFn != nil {
		return f.getFn(sessionID)
	}
	return &payment.SessionStatus{Paid: false}, nil
}

func (f *fakeGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if f.verifyFn != nil {
		return f.verifyFn(payload, signature)
	}
	return nil, model.ErrSignatureVerification
}

// --- mailer ---

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sendErr error
	sent    []sentMail
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
