package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	totalAmount      prometheus.Gauge
	accumulatedShare prometheus.Gauge
	aprBasisPoints   prometheus.Gauge
	paused           prometheus.Gauge
	mints            prometheus.Counter
	burns            prometheus.Counter
	harvests         *prometheus.CounterVec
	harvestPayout    prometheus.Counter
	transfers        prometheus.Counter
	rejections       *prometheus.CounterVec
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			totalAmount: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_pool_total_amount",
				Help: "Total base-asset principal currently under pool custody.",
			}),
			accumulatedShare: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_pool_accumulated_reward_per_share",
				Help: "Current CALC_DECIMALS-scaled accumulated reward per share.",
			}),
			aprBasisPoints: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_pool_apr_basis_points",
				Help: "Currently configured annual percentage rate, in basis points.",
			}),
			paused: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_pool_paused",
				Help: "1 if the pool is paused, 0 otherwise.",
			}),
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_mints_total",
				Help: "Count of successful mint operations.",
			}),
			burns: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_burns_total",
				Help: "Count of successful burn operations.",
			}),
			harvests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_harvests_total",
				Help: "Count of harvest attempts by outcome.",
			}, []string{"outcome"}),
			harvestPayout: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_harvest_payout_total",
				Help: "Cumulative base-asset units paid out via harvest, as a float approximation.",
			}),
			transfers: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_share_transfers_total",
				Help: "Count of successful share-token transfer and transferFrom operations.",
			}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_operation_rejections_total",
				Help: "Count of mutator calls rejected by a sentinel error, by operation and reason.",
			}, []string{"operation", "reason"}),
		}
		prometheus.MustRegister(
			stakingRegistry.totalAmount,
			stakingRegistry.accumulatedShare,
			stakingRegistry.aprBasisPoints,
			stakingRegistry.paused,
			stakingRegistry.mints,
			stakingRegistry.burns,
			stakingRegistry.harvests,
			stakingRegistry.harvestPayout,
			stakingRegistry.transfers,
			stakingRegistry.rejections,
		)
	})
	return stakingRegistry
}

func (m *StakingMetrics) SetTotalAmount(amount float64) {
	if m == nil {
		return
	}
	m.totalAmount.Set(amount)
}

func (m *StakingMetrics) SetAccumulatedRewardPerShare(value float64) {
	if m == nil {
		return
	}
	m.accumulatedShare.Set(value)
}

func (m *StakingMetrics) SetAprBasisPoints(bps uint64) {
	if m == nil {
		return
	}
	m.aprBasisPoints.Set(float64(bps))
}

func (m *StakingMetrics) SetPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.paused.Set(1)
		return
	}
	m.paused.Set(0)
}

func (m *StakingMetrics) ObserveMint() {
	if m == nil {
		return
	}
	m.mints.Inc()
}

func (m *StakingMetrics) ObserveBurn() {
	if m == nil {
		return
	}
	m.burns.Inc()
}

func (m *StakingMetrics) ObserveHarvest(payout float64) {
	if m == nil {
		return
	}
	m.harvests.WithLabelValues("ok").Inc()
	m.harvestPayout.Add(payout)
}

func (m *StakingMetrics) ObserveTransfer() {
	if m == nil {
		return
	}
	m.transfers.Inc()
}

func (m *StakingMetrics) ObserveRejection(operation, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
}
