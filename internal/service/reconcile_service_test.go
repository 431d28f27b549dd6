package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"fundify/internal/domain"
	"fundify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the campaign repository's AppendDonation contract in memory:
// one lock around the dedupe check, the append and the increment.
type memStore struct {
	mu        sync.Mutex
	campaigns map[uint]*models.Campaign
	donations []*models.Donation
	nextID    uint

	failures int // fail the next N calls with a transient error
}

func newMemStore(campaigns ...*models.Campaign) *memStore {
	s := &memStore{campaigns: make(map[uint]*models.Campaign)}
	for _, c := range campaigns {
		s.campaigns[c.ID] = c
	}
	return s
}

func (s *memStore) AppendDonation(d *models.Donation) (*models.Donation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, false, errors.New("deadlock found when trying to get lock")
	}
	c, ok := s.campaigns[d.CampaignID]
	if !ok {
		return nil, false, domain.ErrCampaignNotFound
	}
	for _, existing := range s.donations {
		if existing.CampaignID == d.CampaignID && existing.Gateway == d.Gateway && existing.ExternalTxnID == d.ExternalTxnID {
			return existing, false, nil
		}
	}
	if c.Status != domain.CampaignStatusActive {
		d.NeedsReview = true
	}
	s.nextID++
	d.ID = s.nextID
	s.donations = append(s.donations, d)
	c.CurrentAmountCents += d.AmountCents
	return d, true, nil
}

func (s *memStore) sumDonations(campaignID uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, d := range s.donations {
		if d.CampaignID == campaignID {
			sum += d.AmountCents
		}
	}
	return sum
}

func (s *memStore) donationCount(campaignID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.donations {
		if d.CampaignID == campaignID {
			n++
		}
	}
	return n
}

type memAnomalies struct {
	mu   sync.Mutex
	rows []*models.PaymentAnomaly
}

func (a *memAnomalies) Create(row *models.PaymentAnomaly) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, row)
	return nil
}

func activeCampaign(id uint) *models.Campaign {
	return &models.Campaign{ID: id, Status: domain.CampaignStatusActive, GoalAmountCents: 100000}
}

func newTestService(store *memStore, anomalies *memAnomalies) *ReconcileService {
	svc := NewReconcileService(store, anomalies, nil, nil)
	svc.retryBase = 1 // keep test retries fast
	return svc
}

func TestRecordDonation(t *testing.T) {
	store := newMemStore(activeCampaign(1))
	svc := newTestService(store, nil)

	d, err := svc.RecordDonation(context.Background(), RecordDonationInput{
		CampaignID:    1,
		AmountCents:   5000,
		Gateway:       domain.GatewayCardpay,
		ExternalTxnID: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), d.AmountCents)
	assert.True(t, d.Anonymous, "no donor ref means anonymous")
	assert.False(t, d.NeedsReview)
	assert.Equal(t, int64(5000), store.campaigns[1].CurrentAmountCents)
}

func TestRecordDonationIdempotent(t *testing.T) {
	store := newMemStore(activeCampaign(1))
	svc := newTestService(store, nil)

	in := RecordDonationInput{
		CampaignID:    1,
		AmountCents:   5000,
		Gateway:       domain.GatewayCardpay,
		ExternalTxnID: "pi_1",
	}
	first, err := svc.RecordDonation(context.Background(), in)
	require.NoError(t, err)

	// Gateway retries delivery of the same confirmation.
	second, err := svc.RecordDonation(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.donationCount(1))
	assert.Equal(t, int64(5000), store.campaigns[1].CurrentAmountCents)
}

func TestRecordDonationConcurrentDistinctKeys(t *testing.T) {
	store := newMemStore(activeCampaign(1))
	svc := newTestService(store, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordDonation(context.Background(), RecordDonationInput{
				CampaignID:    1,
				AmountCents:   100,
				Gateway:       domain.GatewayAamarpay,
				ExternalTxnID: fmt.Sprintf("TRAN_%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, store.donationCount(1))
	assert.Equal(t, int64(n*100), store.campaigns[1].CurrentAmountCents)
	assert.Equal(t, store.campaigns[1].CurrentAmountCents, store.sumDonations(1), "aggregate must equal ledger sum")
}

func TestRecordDonationTerminalCampaignFlagged(t *testing.T) {
	completed := activeCampaign(2)
	completed.Status = domain.CampaignStatusCompleted
	store := newMemStore(completed)
	svc := newTestService(store, nil)

	d, err := svc.RecordDonation(context.Background(), RecordDonationInput{
		CampaignID:    2,
		AmountCents:   2500,
		Gateway:       domain.GatewayCardpay,
		ExternalTxnID: "pi_late",
	})
	require.NoError(t, err, "captured payment must still be recorded")
	assert.True(t, d.NeedsReview)
	assert.Equal(t, int64(2500), store.campaigns[2].CurrentAmountCents)
}

func TestRecordDonationUnknownCampaignDeadLetters(t *testing.T) {
	store := newMemStore()
	anomalies := &memAnomalies{}
	svc := newTestService(store, anomalies)

	_, err := svc.RecordDonation(context.Background(), RecordDonationInput{
		CampaignID:    99,
		AmountCents:   5000,
		Gateway:       domain.GatewayCardpay,
		ExternalTxnID: "pi_orphan",
	})
	require.ErrorIs(t, err, domain.ErrCampaignNotFound)
	require.Len(t, anomalies.rows, 1)
	assert.Equal(t, "pi_orphan", anomalies.rows[0].ExternalTxnID)
	assert.Equal(t, int64(5000), anomalies.rows[0].AmountCents)
}

func TestRecordDonationRetriesTransientFailure(t *testing.T) {
	store := newMemStore(activeCampaign(1))
	store.failures = 2
	svc := newTestService(store, nil)

	d, err := svc.RecordDonation(context.Background(), RecordDonationInput{
		CampaignID:    1,
		AmountCents:   5000,
		Gateway:       domain.GatewayAamarpay,
		ExternalTxnID: "TRAN_retry",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), d.AmountCents)
	assert.Equal(t, 1, store.donationCount(1))
}

func TestRecordDonationExhaustedRetriesDeadLetters(t *testing.T) {
	store := newMemStore(activeCampaign(1))
	store.failures = 100
	anomalies := &memAnomalies{}
	svc := newTestService(store, anomalies)

	_, err := svc.RecordDonation(context.Background(), RecordDonationInput{
		CampaignID:    1,
		AmountCents:   5000,
		Gateway:       domain.GatewayAamarpay,
		ExternalTxnID: "TRAN_doomed",
		Payload:       `{"tran_id":"TRAN_doomed"}`,
	})
	require.Error(t, err)
	require.Len(t, anomalies.rows, 1)
	assert.Equal(t, "TRAN_doomed", anomalies.rows[0].ExternalTxnID)
	assert.Contains(t, anomalies.rows[0].Payload, "TRAN_doomed")
	assert.Equal(t, 0, store.donationCount(1), "nothing recorded after exhausted retries")
}
