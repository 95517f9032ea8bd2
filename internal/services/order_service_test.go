package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"firstcome/internal/cooking"
	"firstcome/internal/models"
	"firstcome/internal/pkg/errs"
	"firstcome/internal/repositories"
	"firstcome/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPhone(phone string) (*models.Order, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(id string, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(event interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

type kitchen struct {
	orders    *repositories.MemoryOrderRepository
	products  *repositories.MemoryProductRepository
	oven      *cooking.Session
	indicator *countingIndicator
	service   *services.OrderService
}

// newKitchen wires the order service to a manually ticked oven.
func newKitchen(ticks int) *kitchen {
	k := &kitchen{
		orders:    repositories.NewMemoryOrderRepository(),
		products:  repositories.NewMemoryProductRepository(),
		indicator: &countingIndicator{},
	}
	k.oven = cooking.NewSession(k.indicator, 0, testLogger())
	k.service = services.NewOrderService(k.orders, k.products, k.oven, nil, services.TickRange{Min: ticks, Max: ticks}, testLogger())
	return k
}

func (k *kitchen) addOrder(t *testing.T, status models.Status, dm models.DeliveryMethod, createdAt time.Time) string {
	t.Helper()
	o := &models.Order{
		CustomerName:   "Robin",
		CustomerPhone:  fmt.Sprintf("06%08d", createdAt.UnixNano()%100000000),
		DeliveryMethod: dm,
		Status:         status,
		CreatedAt:      createdAt,
	}
	require.NoError(t, k.orders.Create(o))
	return o.ID
}

func (k *kitchen) status(t *testing.T, id string) models.Status {
	t.Helper()
	o, err := k.orders.GetByID(id)
	require.NoError(t, err)
	return o.Status
}

// cookToCompletion ticks the oven until it finishes and hands the completion to the service.
func (k *kitchen) cookToCompletion(t *testing.T) cooking.Completion {
	t.Helper()
	for i := 0; i < 100; i++ {
		if k.oven.Tick() {
			break
		}
	}
	select {
	case c := <-k.oven.Completions():
		require.NoError(t, k.service.FinishCooking(c))
		return c
	default:
		t.Fatal("oven did not complete")
		return cooking.Completion{}
	}
}

func advance(t *testing.T, svc *services.OrderService, id string, want models.Status) {
	t.Helper()
	got, err := svc.AdvanceStatus(id)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOrderService_TakeOutLifecycle(t *testing.T) {
	k := newKitchen(5)
	id := k.addOrder(t, models.StatusNotStarted, models.DeliveryTakeOut, time.Now())

	advance(t, k.service, id, models.StatusPreparation)
	assert.False(t, k.oven.Active())

	advance(t, k.service, id, models.StatusCooking)
	assert.Equal(t, cooking.State{Active: true, OrderID: id, Remaining: 5, Ticks: 5, StartedAt: k.oven.Snapshot().StartedAt}, k.oven.Snapshot())

	// Advancing while the oven is running does not move the order or restart the countdown.
	k.oven.Tick()
	advance(t, k.service, id, models.StatusCooking)
	assert.Equal(t, 4, k.oven.Snapshot().Remaining)

	c := k.cookToCompletion(t)
	assert.Equal(t, id, c.OrderID)
	assert.Equal(t, models.StatusTakeOut, k.status(t, id))
	_, done := k.indicator.counts()
	assert.Equal(t, 1, done)

	advance(t, k.service, id, models.StatusDone)
	assert.Equal(t, models.StatusDone, k.status(t, id))

	// Done is final.
	advance(t, k.service, id, models.StatusDone)
	assert.Equal(t, models.StatusDone, k.status(t, id))
}

func TestOrderService_DeliverySkipsTakeOut(t *testing.T) {
	k := newKitchen(2)
	id := k.addOrder(t, models.StatusCooking, models.DeliveryDelivery, time.Now())
	require.NoError(t, k.oven.Start(id, 2))

	k.cookToCompletion(t)
	assert.Equal(t, models.StatusOutForDelivery, k.status(t, id))

	advance(t, k.service, id, models.StatusDone)
}

func TestOrderService_AdvanceCookingOrderWithFreeOvenStartsIt(t *testing.T) {
	k := newKitchen(3)
	id := k.addOrder(t, models.StatusCooking, models.DeliveryTakeOut, time.Now())

	advance(t, k.service, id, models.StatusCooking)
	assert.True(t, k.oven.Active())
	assert.Equal(t, id, k.oven.Snapshot().OrderID)
}

func TestOrderService_CompletionMovesOrderExactlyOnce(t *testing.T) {
	k := newKitchen(1)
	id := k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, time.Now())
	advance(t, k.service, id, models.StatusCooking)

	c := k.cookToCompletion(t)
	assert.Equal(t, models.StatusTakeOut, k.status(t, id))

	// A duplicate completion must not move the order again.
	require.NoError(t, k.service.FinishCooking(c))
	assert.Equal(t, models.StatusTakeOut, k.status(t, id))
}

func TestOrderService_ConcurrentOrdersShareOneOven(t *testing.T) {
	k := newKitchen(2)
	base := time.Now().Add(-time.Hour)

	const n = 16
	ids := make([]string, n)
	for i := range ids {
		ids[i] = k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, base.Add(time.Duration(i)*time.Second))
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			got, err := k.service.AdvanceStatus(id)
			assert.NoError(t, err)
			assert.Equal(t, models.StatusCooking, got)
		}(id)
	}
	close(start)
	wg.Wait()

	require.True(t, k.oven.Active())
	winner := k.oven.Snapshot().OrderID
	assert.Contains(t, ids, winner)
	assert.Len(t, k.indicator.cooking, 1, "the oven was started exactly once")
	for _, id := range ids {
		assert.Equal(t, models.StatusCooking, k.status(t, id))
	}

	k.cookToCompletion(t)
	for _, id := range ids {
		if id == winner {
			assert.Equal(t, models.StatusTakeOut, k.status(t, id))
		} else {
			assert.Equal(t, models.StatusCooking, k.status(t, id), "queued orders wait at cooking")
		}
	}
}

func TestOrderService_ResumeQueued(t *testing.T) {
	k := newKitchen(2)
	now := time.Now()
	newest := k.addOrder(t, models.StatusCooking, models.DeliveryTakeOut, now)
	oldest := k.addOrder(t, models.StatusCooking, models.DeliveryDelivery, now.Add(-10*time.Minute))
	k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, now.Add(-time.Hour))

	started, err := k.service.ResumeQueued()
	require.NoError(t, err)
	assert.Equal(t, oldest, started)
	assert.Equal(t, oldest, k.oven.Snapshot().OrderID)

	started, err = k.service.ResumeQueued()
	require.NoError(t, err)
	assert.Empty(t, started, "busy oven starts nothing")

	k.cookToCompletion(t)
	assert.Equal(t, models.StatusOutForDelivery, k.status(t, oldest))

	started, err = k.service.ResumeQueued()
	require.NoError(t, err)
	assert.Equal(t, newest, started)
}

func TestOrderService_DeleteCookingOrderCancelsOven(t *testing.T) {
	k := newKitchen(5)
	id := k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, time.Now())
	advance(t, k.service, id, models.StatusCooking)
	k.oven.Tick()

	require.NoError(t, k.service.DeleteOrder(id))
	assert.False(t, k.oven.Active())
	empty, done := k.indicator.counts()
	assert.Equal(t, 1, empty)
	assert.Zero(t, done)

	_, err := k.service.GetOrderByID(id)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	// A fresh session starts from its own tick count.
	other := k.addOrder(t, models.StatusCooking, models.DeliveryTakeOut, time.Now())
	advance(t, k.service, other, models.StatusCooking)
	assert.Equal(t, 5, k.oven.Snapshot().Remaining)
}

func TestOrderService_DeleteOtherOrderKeepsOven(t *testing.T) {
	k := newKitchen(5)
	cookingID := k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, time.Now())
	advance(t, k.service, cookingID, models.StatusCooking)
	otherID := k.addOrder(t, models.StatusNotStarted, models.DeliveryTakeOut, time.Now())

	require.NoError(t, k.service.DeleteOrder(otherID))
	assert.True(t, k.oven.Active())
	assert.Equal(t, cookingID, k.oven.Snapshot().OrderID)
}

func TestOrderService_CompletionForDeletedOrder(t *testing.T) {
	k := newKitchen(1)
	err := k.service.FinishCooking(cooking.Completion{OrderID: "gone"})
	assert.NoError(t, err)
}

func TestOrderService_NotFound(t *testing.T) {
	k := newKitchen(5)

	_, err := k.service.AdvanceStatus("missing")
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.False(t, k.oven.Active())

	assert.ErrorIs(t, k.service.DeleteOrder("missing"), errs.ErrObjectNotFound)

	_, err = k.service.GetOrderByPhone("0600000000")
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrderService_UpdateFailureLeavesOvenAlone(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	ind := &countingIndicator{}
	oven := cooking.NewSession(ind, 0, testLogger())
	svc := services.NewOrderService(mockRepo, repositories.NewMemoryProductRepository(), oven, nil, services.TickRange{Min: 5, Max: 6}, testLogger())

	order := &models.Order{ID: "o-1", Status: models.StatusPreparation, DeliveryMethod: models.DeliveryTakeOut}
	mockRepo.On("GetByID", "o-1").Return(order, nil).Once()
	mockRepo.On("Update", "o-1", map[string]interface{}{"status": models.StatusCooking}).Return(fmt.Errorf("disk full")).Once()

	_, err := svc.AdvanceStatus("o-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, oven.Active())
	mockRepo.AssertExpectations(t)
}

func TestOrderService_PublishesStatusChanges(t *testing.T) {
	orders := repositories.NewMemoryOrderRepository()
	publisher := new(MockPublisher)
	oven := cooking.NewSession(&countingIndicator{}, 0, testLogger())
	svc := services.NewOrderService(orders, repositories.NewMemoryProductRepository(), oven, publisher, services.TickRange{Min: 1, Max: 1}, testLogger())

	o := &models.Order{CustomerPhone: "0612345678", Status: models.StatusNotStarted, DeliveryMethod: models.DeliveryTakeOut}
	require.NoError(t, orders.Create(o))

	publisher.On("PublishOrderEvent", mock.MatchedBy(func(e services.StatusChangedEvent) bool {
		return e.Type == services.EventStatusChanged &&
			e.OrderID == o.ID &&
			e.CustomerPhone == "0612345678" &&
			e.OldStatus == models.StatusNotStarted &&
			e.NewStatus == models.StatusPreparation
	})).Return(fmt.Errorf("broker down")).Once()

	got, err := svc.AdvanceStatus(o.ID)
	require.NoError(t, err, "a failed publish does not fail the advance")
	assert.Equal(t, models.StatusPreparation, got)
	publisher.AssertExpectations(t)
}

func TestOrderService_RunConsumesCompletions(t *testing.T) {
	orders := repositories.NewMemoryOrderRepository()
	ind := &countingIndicator{}
	oven := cooking.NewSession(ind, 2*time.Millisecond, testLogger())
	svc := services.NewOrderService(orders, repositories.NewMemoryProductRepository(), oven, nil, services.TickRange{Min: 3, Max: 3}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	o := &models.Order{Status: models.StatusPreparation, DeliveryMethod: models.DeliveryDelivery}
	require.NoError(t, orders.Create(o))

	advance(t, svc, o.ID, models.StatusCooking)
	assert.Eventually(t, func() bool {
		got, err := orders.GetByID(o.ID)
		return err == nil && got.Status == models.StatusOutForDelivery
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, oven.Active())
	_, done := ind.counts()
	assert.Equal(t, 1, done)
}

func TestOrderService_CreateOrder(t *testing.T) {
	k := newKitchen(5)
	pizza := &models.Product{Name: "Margherita", Price: 9.5, Available: true}
	soldOut := &models.Product{Name: "Calzone", Price: 12, Available: false}
	require.NoError(t, k.products.Create(pizza))
	require.NoError(t, k.products.Create(soldOut))

	order, err := k.service.CreateOrder(services.CreateOrderRequest{
		CustomerName:   "Robin",
		CustomerPhone:  "0612345678",
		DeliveryMethod: models.DeliveryTakeOut,
		Items:          []services.CreateOrderItem{{ProductID: pizza.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusNotStarted, order.Status)
	assert.Equal(t, 19.0, order.TotalAmount)
	assert.Equal(t, "Margherita", order.Items[0].Name)
	assert.False(t, order.CreatedAt.IsZero())

	byPhone, err := k.service.GetOrderByPhone("0612345678")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byPhone.ID)

	_, err = k.service.CreateOrder(services.CreateOrderRequest{
		CustomerName:   "Robin",
		CustomerPhone:  "0612345678",
		DeliveryMethod: models.DeliveryTakeOut,
		Items:          []services.CreateOrderItem{{ProductID: soldOut.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = k.service.CreateOrder(services.CreateOrderRequest{
		CustomerName:   "Robin",
		CustomerPhone:  "0612345678",
		DeliveryMethod: models.DeliveryTakeOut,
		Items:          []services.CreateOrderItem{{ProductID: "missing", Quantity: 1}},
	})
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = k.service.CreateOrder(services.CreateOrderRequest{
		CustomerName:   "Robin",
		CustomerPhone:  "0612345678",
		DeliveryMethod: "drone",
		Items:          []services.CreateOrderItem{{ProductID: pizza.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	all, err := k.service.ListOrders()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTickRange_Draw(t *testing.T) {
	r := services.TickRange{Min: 5, Max: 6}
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		n := r.Draw()
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 6)
		seen[n] = true
	}
	assert.Len(t, seen, 2)

	assert.Equal(t, 3, services.TickRange{Min: 3, Max: 3}.Draw())
}

func TestOrderService_FinishedOrderIsNotCookedTwice(t *testing.T) {
	k := newKitchen(1)
	now := time.Now()
	id := k.addOrder(t, models.StatusPreparation, models.DeliveryTakeOut, now.Add(-time.Hour))
	advance(t, k.service, id, models.StatusCooking)

	// The countdown has finished but the completion is still on its way.
	require.True(t, k.oven.Tick())

	advance(t, k.service, id, models.StatusCooking)
	assert.False(t, k.oven.Active(), "advancing a just-cooked order leaves the oven alone")

	started, err := k.service.ResumeQueued()
	require.NoError(t, err)
	assert.Empty(t, started)
	assert.False(t, k.oven.Active())

	// A genuinely queued order may take the oven meanwhile.
	queued := k.addOrder(t, models.StatusCooking, models.DeliveryTakeOut, now)
	started, err = k.service.ResumeQueued()
	require.NoError(t, err)
	assert.Equal(t, queued, started)

	c := <-k.oven.Completions()
	require.NoError(t, k.service.FinishCooking(c))
	assert.Equal(t, models.StatusTakeOut, k.status(t, id))
	assert.Equal(t, queued, k.oven.Snapshot().OrderID)
	_, done := k.indicator.counts()
	assert.Equal(t, 1, done)
	assert.False(t, k.oven.Pending(id))
}

// stallingPublisher blocks its first publish until released.
type stallingPublisher struct {
	calls   atomic.Int32
	stalled chan struct{}
	release chan struct{}
}

func (p *stallingPublisher) PublishOrderEvent(event interface{}) error {
	if p.calls.Add(1) == 1 {
		close(p.stalled)
		<-p.release
	}
	return nil
}

func TestOrderService_SlowPublisherDoesNotBlockKitchen(t *testing.T) {
	orders := repositories.NewMemoryOrderRepository()
	publisher := &stallingPublisher{stalled: make(chan struct{}), release: make(chan struct{})}
	oven := cooking.NewSession(&countingIndicator{}, 0, testLogger())
	svc := services.NewOrderService(orders, repositories.NewMemoryProductRepository(), oven, publisher, services.TickRange{Min: 1, Max: 1}, testLogger())

	first := &models.Order{Status: models.StatusNotStarted, DeliveryMethod: models.DeliveryTakeOut}
	second := &models.Order{Status: models.StatusPreparation, DeliveryMethod: models.DeliveryTakeOut}
	require.NoError(t, orders.Create(first))
	require.NoError(t, orders.Create(second))

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, err := svc.AdvanceStatus(first.ID)
		assert.NoError(t, err)
	}()
	<-publisher.stalled

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		got, err := svc.AdvanceStatus(second.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCooking, got)
	}()
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("advance waited for another order's publish")
	}
	assert.True(t, oven.Active())

	close(publisher.release)
	<-firstDone
}
