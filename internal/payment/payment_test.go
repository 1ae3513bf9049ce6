package payment

import (
	"context"
	"errors"
	"testing"

	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/entity"
)

func TestStatusOf(t *testing.T) {
	cases := map[string]entity.PaymentStatus{
		"approved":   entity.PaymentPaid,
		"Authorized": entity.PaymentPaid,
		"in_process": entity.PaymentPending,
		"pending":    entity.PaymentPending,
	}
	for in, want := range cases {
		got, err := StatusOf(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := StatusOf("rejected")
	assert.ErrorIs(t, err, ErrRejected)

	_, err = StatusOf("teleported")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestNew_SelectsGateway(t *testing.T) {
	gw, err := New(config.Config{Payments: config.Payments{Gateway: "mock"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, gw)

	_, err = New(config.Config{Payments: config.Payments{Gateway: "mercadopago"}}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	_, err = New(config.Config{Payments: config.Payments{Gateway: "stripe"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestMock_RecordsAndResponds(t *testing.T) {
	m := NewMock()
	charge := Charge{Reference: "sale-1", Amount: decimal.NewFromInt(50), Method: entity.PaymentPix}

	res, err := m.Charge(context.Background(), charge)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, res.Status)
	assert.NotEmpty(t, res.ProviderID)

	m.Respond("rejected", nil)
	_, err = m.Charge(context.Background(), charge)
	assert.ErrorIs(t, err, ErrRejected)

	boom := errors.New("provider down")
	m.Respond("", boom)
	_, err = m.Charge(context.Background(), charge)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, m.Charges(), 3)
}

type fakeCreator struct {
	req       mppayment.Request
	resp      *mppayment.Response
	cancelled []int
	cancelErr error
}

func (f *fakeCreator) Create(_ context.Context, req mppayment.Request) (*mppayment.Response, error) {
	f.req = req
	return f.resp, nil
}

func (f *fakeCreator) Cancel(_ context.Context, id int) (*mppayment.Response, error) {
	f.cancelled = append(f.cancelled, id)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &mppayment.Response{ID: id, Status: "cancelled"}, nil
}

type fakeRefunds struct {
	refunded []int
}

func (f *fakeRefunds) Create(_ context.Context, paymentID int) (*refund.Response, error) {
	f.refunded = append(f.refunded, paymentID)
	return &refund.Response{}, nil
}

func TestMercadoPago_MapsRequestAndResponse(t *testing.T) {
	creator := &fakeCreator{resp: &mppayment.Response{ID: 987, Status: "in_process"}}
	gw := &MercadoPago{client: creator, logger: zap.NewNop()}

	res, err := gw.Charge(context.Background(), Charge{
		Reference:  "sale-12",
		Amount:     decimal.RequireFromString("149.90"),
		Method:     entity.PaymentCard,
		PayerEmail: "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "987", res.ProviderID)
	assert.Equal(t, entity.PaymentPending, res.Status)
	assert.Equal(t, 149.9, creator.req.TransactionAmount)
	assert.Equal(t, "credit_card", creator.req.PaymentMethodID)
	assert.Equal(t, "sale-12", creator.req.ExternalReference)
}

func TestMercadoPago_Reverse(t *testing.T) {
	creator := &fakeCreator{}
	refunds := &fakeRefunds{}
	gw := &MercadoPago{client: creator, refunds: refunds, logger: zap.NewNop()}
	ctx := context.Background()

	require.NoError(t, gw.Reverse(ctx, Result{ProviderID: "987", Status: entity.PaymentPaid}))
	assert.Equal(t, []int{987}, refunds.refunded)
	assert.Empty(t, creator.cancelled)

	require.NoError(t, gw.Reverse(ctx, Result{ProviderID: "988", Status: entity.PaymentPending}))
	assert.Equal(t, []int{988}, creator.cancelled)

	creator.cancelErr = errors.New("timeout")
	err := gw.Reverse(ctx, Result{ProviderID: "989", Status: entity.PaymentPending})
	assert.ErrorContains(t, err, "989")

	assert.Error(t, gw.Reverse(ctx, Result{ProviderID: "not-a-number", Status: entity.PaymentPaid}))
}

func TestMock_Reverse(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Reverse(context.Background(), Result{ProviderID: "1"}))

	boom := errors.New("provider down")
	m.FailReversals(boom)
	assert.ErrorIs(t, m.Reverse(context.Background(), Result{ProviderID: "2"}), boom)
	assert.Equal(t, []string{"1", "2"}, m.Reversed())
}
