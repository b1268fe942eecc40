package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DriveMetrics 刷单核心链路指标
type DriveMetrics struct {
	SessionsStartedTotal   prometheus.CounterVec
	SessionsCompletedTotal prometheus.CounterVec
	SessionsFrozenTotal    prometheus.CounterVec
	SessionsResetTotal     prometheus.CounterVec
	SettlementsTotal       prometheus.CounterVec
	SettlementAmountTotal  prometheus.CounterVec
	CommissionPaidTotal    prometheus.CounterVec
	AdminDepositsTotal     prometheus.CounterVec
	AdminDepositAmount     prometheus.CounterVec
}

// NewDriveMetrics 注册并创建指标实例
func NewDriveMetrics() *DriveMetrics {
	return &DriveMetrics{
		SessionsStartedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_sessions_started_total",
				Help: "累计开始的刷单会话数",
			},
			[]string{"tier"},
		),
		SessionsCompletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_sessions_completed_total",
				Help: "累计完成的刷单会话数",
			},
			[]string{"tier"},
		),
		SessionsFrozenTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_sessions_frozen_total",
				Help: "累计进入冻结状态的会话数",
			},
			[]string{"tier"},
		),
		SessionsResetTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_sessions_reset_total",
				Help: "累计被管理员重置的会话数",
			},
			[]string{"reason"},
		),
		SettlementsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_settlements_total",
				Help: "累计任务结算次数",
			},
			[]string{"tier", "task_type"},
		),
		SettlementAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_settlement_amount_total",
				Help: "累计任务结算扣款金额",
			},
			[]string{"tier"},
		),
		CommissionPaidTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_commission_paid_total",
				Help: "累计发放佣金金额",
			},
			[]string{"commission_type"},
		),
		AdminDepositsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_deposits_total",
				Help: "累计管理员入金笔数",
			},
			[]string{},
		),
		AdminDepositAmount: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_deposit_amount_total",
				Help: "累计管理员入金金额",
			},
			[]string{},
		),
	}
}

// RecordSessionStarted 记录会话开始
func (m *DriveMetrics) RecordSessionStarted(tier string) {
	if m == nil {
		return
	}
	m.SessionsStartedTotal.WithLabelValues(tier).Inc()
}

// RecordSessionCompleted 记录会话完成
func (m *DriveMetrics) RecordSessionCompleted(tier string) {
	if m == nil {
		return
	}
	m.SessionsCompletedTotal.WithLabelValues(tier).Inc()
}

// RecordSessionFrozen 记录会话冻结
func (m *DriveMetrics) RecordSessionFrozen(tier string) {
	if m == nil {
		return
	}
	m.SessionsFrozenTotal.WithLabelValues(tier).Inc()
}

// RecordSessionReset 记录管理员重置
func (m *DriveMetrics) RecordSessionReset(reason string) {
	if m == nil {
		return
	}
	m.SessionsResetTotal.WithLabelValues(reason).Inc()
}

// RecordSettlement 记录任务结算
func (m *DriveMetrics) RecordSettlement(tier, taskType string, amount float64) {
	if m == nil {
		return
	}
	m.SettlementsTotal.WithLabelValues(tier, taskType).Inc()
	m.SettlementAmountTotal.WithLabelValues(tier).Add(amount)
}

// RecordCommissionPaid 记录佣金发放
func (m *DriveMetrics) RecordCommissionPaid(commissionType string, amount float64) {
	if m == nil {
		return
	}
	m.CommissionPaidTotal.WithLabelValues(commissionType).Add(amount)
}

// RecordAdminDeposit 记录管理员入金
func (m *DriveMetrics) RecordAdminDeposit(amount float64) {
	if m == nil {
		return
	}
	m.AdminDepositsTotal.WithLabelValues().Inc()
	m.AdminDepositAmount.WithLabelValues().Add(amount)
}
