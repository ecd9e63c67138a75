package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/config"
	"github.com/langchou/navguard/internal/engine"
	"github.com/langchou/navguard/internal/models"
	"github.com/langchou/navguard/internal/repository"
	"github.com/langchou/navguard/internal/voice"
	"github.com/langchou/navguard/pkg/ws"
)

// tripAccumulator 当前行程的累计量，引擎之外的服务层状态
type tripAccumulator struct {
	startMs      int64
	lastMs       int64
	prev         *models.Sample
	distanceM    float64
	maxSpeedKph  float64
	speedSumKph  float64
	speedSamples int
	cameraAlerts int
	bumpAlerts   int
}

// AlertService 告警服务
// 引擎是单逻辑 actor，这里用互斥锁把 HTTP 并发收敛成串行调用
type AlertService struct {
	cfg        *config.Config
	logger     *zap.Logger
	engine     *engine.Dispatcher
	hazardRepo *repository.HazardRepository
	alertRepo  *repository.AlertRepository
	tripRepo   *repository.TripRepository
	wsHub      *ws.Hub
	sink       voice.Sink

	mu   sync.Mutex
	trip tripAccumulator
}

// NewAlertService 创建告警服务
func NewAlertService(
	cfg *config.Config,
	logger *zap.Logger,
	eng *engine.Dispatcher,
	hazardRepo *repository.HazardRepository,
	alertRepo *repository.AlertRepository,
	tripRepo *repository.TripRepository,
	wsHub *ws.Hub,
	sink voice.Sink,
) *AlertService {
	return &AlertService{
		cfg:        cfg,
		logger:     logger,
		engine:     eng,
		hazardRepo: hazardRepo,
		alertRepo:  alertRepo,
		tripRepo:   tripRepo,
		wsHub:      wsHub,
		sink:       sink,
	}
}

// Ingest 处理一个采样点：喂给引擎、播报、入库、广播
func (s *AlertService) Ingest(ctx context.Context, sample models.Sample, rc *models.RouteContext) []models.AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.engine.State()
	admitted := s.engine.Ingest(sample, rc)
	s.accumulate(sample)

	for _, ev := range admitted {
		s.emit(ctx, ev)
	}

	if after := s.engine.State(); after != before {
		s.wsHub.BroadcastStateUpdate(map[string]interface{}{
			"state":        after,
			"safety_score": s.engine.SafetyScore(),
		})
	}

	return admitted
}

// OfferTip 让外部生成的低优先级提示走同一套仲裁和播报管线
// 仲裁账本完全按采样时间记账，首个采样到达前没有会话时钟，提示一律拒绝
func (s *AlertService) OfferTip(ctx context.Context, ev models.AlertEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.trip.lastMs
	if nowMs == 0 {
		return false
	}
	if !s.engine.Offer(nowMs, ev) {
		return false
	}
	ev.TimestampMs = nowMs
	s.emit(ctx, ev)
	return true
}

// emit 调用方必须持有 s.mu
func (s *AlertService) emit(ctx context.Context, ev models.AlertEvent) {
	switch ev.TemplateID {
	case "speed_camera":
		s.trip.cameraAlerts++
	case "speed_bump":
		s.trip.bumpAlerts++
	}

	s.sink.Speak(ev)
	s.wsHub.BroadcastAlert(ev)

	rec := &models.AlertRecord{
		Category:   ev.Category,
		Priority:   ev.Priority.String(),
		TemplateID: ev.TemplateID,
		Message:    ev.Message(),
		DedupeKey:  ev.DedupeKey,
		HazardID:   ev.HazardID,
		EmittedAt:  time.UnixMilli(ev.TimestampMs),
	}
	if err := s.alertRepo.Create(ctx, rec); err != nil {
		// 入库失败不影响播报
		s.logger.Error("Failed to persist alert", zap.Error(err))
	}
}

// accumulate 更新当前行程的累计量
func (s *AlertService) accumulate(sample models.Sample) {
	if !sample.HasValidTimestamp() || !sample.HasValidCoordinates() {
		return
	}
	if s.trip.startMs == 0 {
		s.trip.startMs = sample.TimestampMs
	}
	if s.trip.prev != nil {
		s.trip.distanceM += engine.Haversine(
			s.trip.prev.Latitude, s.trip.prev.Longitude,
			sample.Latitude, sample.Longitude)
	}
	kph := sample.SpeedKph()
	if kph > s.trip.maxSpeedKph {
		s.trip.maxSpeedKph = kph
	}
	s.trip.speedSumKph += kph
	s.trip.speedSamples++
	s.trip.lastMs = sample.TimestampMs
	prev := sample
	s.trip.prev = &prev
}

// Reset 结束当前行程并开始新会话
// 行程统计入库、危险点从库里重载、引擎状态清零
func (s *AlertService) Reset(ctx context.Context) (*models.TripStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finished *models.TripStats
	if s.trip.startMs > 0 {
		finished = s.finishTrip()
		if err := s.tripRepo.Create(ctx, finished); err != nil {
			s.logger.Error("Failed to persist trip", zap.Error(err))
		}
	}

	hazards, err := s.hazardRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload hazard points: %w", err)
	}

	s.engine.Reset(hazards)
	s.trip = tripAccumulator{}

	s.logger.Info("Alert session reset",
		zap.Int("hazards", len(hazards)),
		zap.Bool("trip_recorded", finished != nil))
	return finished, nil
}

// finishTrip 调用方必须持有 s.mu
func (s *AlertService) finishTrip() *models.TripStats {
	counters := s.engine.Counters()
	endedAt := time.UnixMilli(s.trip.lastMs)

	trip := &models.TripStats{
		StartedAt:      time.UnixMilli(s.trip.startMs),
		EndedAt:        &endedAt,
		DistanceKm:     s.trip.distanceM / 1000,
		DurationMin:    float64(s.trip.lastMs-s.trip.startMs) / 60_000,
		MaxSpeedKph:    s.trip.maxSpeedKph,
		OverSpeedCount: counters[engine.EventSpeedViolation],
		CameraAlerts:   s.trip.cameraAlerts,
		BumpAlerts:     s.trip.bumpAlerts,
		HardBrakes:     counters[engine.EventHardBrake],
		RapidAccels:    counters[engine.EventRapidAccel],
		SharpTurns:     counters[engine.EventSharpTurn],
		FatigueAlerts:  counters[engine.EventFatigue],
		SafetyScore:    s.engine.SafetyScore(),
	}
	if s.trip.speedSamples > 0 {
		trip.AvgSpeedKph = s.trip.speedSumKph / float64(s.trip.speedSamples)
	}
	return trip
}

// Snapshot 当前会话快照（状态、分数、行为计数）
type Snapshot struct {
	State        models.NavigationState `json:"state"`
	SafetyScore  float64                `json:"safety_score"`
	Counters     map[string]int         `json:"counters"`
	HazardCount  int                    `json:"hazard_count"`
	TripDistance float64                `json:"trip_distance_km"`
}

// Status 当前会话快照
func (s *AlertService) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:        s.engine.State(),
		SafetyScore:  s.engine.SafetyScore(),
		Counters:     s.engine.Counters(),
		HazardCount:  s.engine.HazardCount(),
		TripDistance: s.trip.distanceM / 1000,
	}
}

// StateHistory 本会话的状态转换记录
func (s *AlertService) StateHistory() []models.StateTransition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.History()
}

// SafetyScore 当前安全分
func (s *AlertService) SafetyScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SafetyScore()
}

// ListHazards 全部危险点
func (s *AlertService) ListHazards(ctx context.Context) ([]models.HazardPoint, error) {
	return s.hazardRepo.List(ctx)
}

// SaveHazard 新增/更新危险点并热更新引擎索引
func (s *AlertService) SaveHazard(ctx context.Context, p *models.HazardPoint) error {
	if err := s.hazardRepo.Upsert(ctx, p); err != nil {
		return err
	}
	return s.reloadHazards(ctx)
}

// DeleteHazard 删除危险点并热更新引擎索引
func (s *AlertService) DeleteHazard(ctx context.Context, id string) error {
	if err := s.hazardRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.reloadHazards(ctx)
}

func (s *AlertService) reloadHazards(ctx context.Context) error {
	hazards, err := s.hazardRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("reload hazard points: %w", err)
	}
	s.mu.Lock()
	s.engine.ReplaceHazards(hazards)
	s.mu.Unlock()
	return nil
}

// RecentAlerts 最近的告警记录
func (s *AlertService) RecentAlerts(ctx context.Context, limit int) ([]*models.AlertRecord, error) {
	if limit <= 0 || limit > s.cfg.AlertHistoryLimit {
		limit = s.cfg.AlertHistoryLimit
	}
	return s.alertRepo.ListRecent(ctx, limit)
}

// RecentTrips 最近的行程
func (s *AlertService) RecentTrips(ctx context.Context, limit int) ([]*models.TripStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.tripRepo.ListRecent(ctx, limit)
}

// InitData WebSocket 新连接的初始数据
func (s *AlertService) InitData(ctx context.Context) *ws.InitData {
	hazards, err := s.hazardRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load hazards for init data", zap.Error(err))
	}
	st := s.Status()
	return &ws.InitData{
		State:   st.State,
		Score:   st.SafetyScore,
		Hazards: hazards,
	}
}
