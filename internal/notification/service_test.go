package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

// fakeProvider records notifications instead of sending them.
type fakeProvider struct {
	name    string
	enabled bool
	types   map[Type]bool
	fail    error

	mu   sync.Mutex
	sent []*Notification
}

func newFakeProvider(types ...Type) *fakeProvider {
	f := &fakeProvider{name: "fake", enabled: true, types: map[Type]bool{}}
	for _, t := range types {
		f.types[t] = true
	}
	return f
}

func (f *fakeProvider) GetName() string       { return f.name }
func (f *fakeProvider) ValidateConfig() error { return nil }
func (f *fakeProvider) IsEnabled() bool       { return f.enabled }
func (f *fakeProvider) SupportsType(t Type) bool {
	return len(f.types) == 0 || f.types[t]
}

func (f *fakeProvider) Send(_ context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.fail
}

func (f *fakeProvider) Sent() []*Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Notification(nil), f.sent...)
}

func TestNotifySupplyReportInline(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	s := NewServiceWithProviders([]Provider{fp})

	ok := s.NotifySupplyReport(records.SupplyReport{
		InstitutionCode: "A123",
		InstitutionName: "好藥診所",
		City:            "臺北市",
		Drug:            "Ritalin",
		Payment:         records.NewPaymentConditions("健保"),
		Email:           "doc@example.com",
	})
	require.True(t, ok)

	sent := fp.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, TypeSupplyReport, sent[0].Type)
	assert.Contains(t, sent[0].Message, "Ritalin")
	assert.Contains(t, sent[0].Message, "健保")
	assert.NotContains(t, sent[0].Message, "doc@example.com", "contact email stays in the store")
	assert.Equal(t, "A123", sent[0].Metadata["institution_code"])
}

func TestWorkerDeliversQueuedAlerts(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	s := NewServiceWithProviders([]Provider{fp})
	s.Start()
	s.Start()

	for range 3 {
		assert.True(t, s.NotifyProposal(records.NewDrugProposal{DrugName: "Strattera", City: "臺中市"}))
	}
	s.Close()
	s.Close()

	assert.Len(t, fp.Sent(), 3, "close drains the queue")
	assert.False(t, s.NotifyProposal(records.NewDrugProposal{DrugName: "late"}), "closed service refuses alerts")
}

func TestSendSkipsUnsupportedAndDisabledProviders(t *testing.T) {
	t.Parallel()

	supplyOnly := newFakeProvider(TypeSupplyReport)
	disabled := newFakeProvider()
	disabled.enabled = false
	s := NewServiceWithProviders([]Provider{supplyOnly, disabled})

	require.NoError(t, s.Send(t.Context(), NewNotification(TypeDrugProposal, "t", "m")))
	assert.Empty(t, supplyOnly.Sent())
	assert.Empty(t, disabled.Sent())
}

func TestSendReportsFailures(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	dm, err := metrics.NewDirectoryMetrics(reg)
	require.NoError(t, err)

	failing := newFakeProvider()
	failing.fail = errors.NewStd("smtp refused")
	s := NewServiceWithProviders([]Provider{failing}, WithMetrics(dm))

	err = s.Send(t.Context(), NewNotification(TypeTest, "t", "m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp refused")
	assert.False(t, s.NotifyProposal(records.NewDrugProposal{DrugName: "x"}))
	assert.InDelta(t, 2, testutil.ToFloat64(dm.Notifications.WithLabelValues("failure")), 0)
}

func TestServiceWithoutReviewers(t *testing.T) {
	t.Parallel()

	s, err := NewService(conf.NotificationSettings{Timeout: time.Second})
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	assert.False(t, s.NotifySupplyReport(records.SupplyReport{}))

	var nilService *Service
	assert.False(t, nilService.NotifyProposal(records.NewDrugProposal{}))
}

func TestShoutrrrProviderValidateConfig(t *testing.T) {
	t.Parallel()

	p := NewShoutrrrProvider("", true, nil, nil, 0)
	assert.Equal(t, "shoutrrr", p.GetName())
	require.Error(t, p.ValidateConfig(), "no URLs")

	p = NewShoutrrrProvider("reviewers", true, []string{"notaservice://token@host"}, nil, time.Second)
	err := p.ValidateConfig()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "token@")

	p = NewShoutrrrProvider("reviewers", true, []string{"generic://example.com/hooks/curators"}, []Type{TypeSupplyReport}, time.Second)
	require.NoError(t, p.ValidateConfig())
	assert.True(t, p.SupportsType(TypeSupplyReport))
	assert.False(t, p.SupportsType(TypeDrugProposal))

	disabled := NewShoutrrrProvider("off", false, nil, nil, 0)
	require.NoError(t, disabled.ValidateConfig())
	err = disabled.Send(t.Context(), NewNotification(TypeTest, "t", "m"))
	require.Error(t, err, "sender never built")
}
