// internal/services/video_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
)

// Clock 抽象时间源，轮询循环通过它等待
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// VideoService 管理长轮询的视频生成任务
// 状态机：submitted -> polling -> ready | failed，终态不再迁移
type VideoService struct {
	llm          ProviderSource
	kits         *KitService
	visuals      *VisualService
	stats        *StatsService
	metrics      *utils.APIMetrics
	progress     *ProgressService
	clock        Clock
	pollInterval time.Duration

	jobs  map[string]*models.VideoJob
	ops   map[string]*llm.VideoOperation
	mutex sync.RWMutex
}

// NewVideoService 创建视频服务，pollSeconds<=0 时取默认10秒
// metrics 是全局共享的指标实例，可为nil
func NewVideoService(providerSource ProviderSource, kitService *KitService,
	visualService *VisualService, statsService *StatsService,
	progressService *ProgressService, metrics *utils.APIMetrics, pollSeconds int) *VideoService {
	if pollSeconds <= 0 {
		pollSeconds = 10
	}
	return &VideoService{
		llm:          providerSource,
		kits:         kitService,
		visuals:      visualService,
		stats:        statsService,
		metrics:      metrics,
		progress:     progressService,
		clock:        realClock{},
		pollInterval: time.Duration(pollSeconds) * time.Second,
		jobs:         make(map[string]*models.VideoJob),
		ops:          make(map[string]*llm.VideoOperation),
	}
}

// SetClock 替换时间源，测试用
func (s *VideoService) SetClock(clock Clock) {
	s.clock = clock
}

// StartVideoJob 提交视频生成任务并启动后台轮询
// seedImage 可选，是槽位已有配图的 data URI，作为首帧参考
func (s *VideoService) StartVideoJob(ctx context.Context, date string, sectionIndex, slotIndex int, seedImage string) (*models.VideoJob, error) {
	provider, err := s.llm.GetProvider()
	if err != nil {
		return nil, apperrors.NewUpstreamFailureError("AI提供者不可用", err)
	}

	slot, err := s.kits.GetSlotPrompt(date, sectionIndex, slotIndex)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(slot.Text) == "" {
		return nil, apperrors.NewEmptyExtractionError(
			fmt.Sprintf("槽位 %s 没有可用的提示词", models.SlotKey(sectionIndex, slotIndex)))
	}

	req := llm.VideoRequest{
		Prompt:      slot.Text,
		AspectRatio: "9:16",
	}
	if seedImage != "" {
		data, mimeType, decErr := DecodeDataURI(seedImage)
		if decErr != nil {
			// 坏的首帧只跳过，不阻止提交
			if s.metrics != nil {
				s.metrics.RecordError("invalid_reference", "video_service")
			}
		} else {
			req.SeedImage = &llm.ReferenceImage{Data: data, MIMEType: mimeType}
		}
	}

	op, err := provider.StartVideo(ctx, req)
	if err != nil {
		return nil, apperrors.NewUpstreamFailureError("提交视频任务失败", err)
	}

	now := s.clock.Now()
	job := &models.VideoJob{
		ID:           uuid.NewString(),
		Date:         date,
		SectionIndex: sectionIndex,
		SlotIndex:    slotIndex,
		Prompt:       slot.Text,
		State:        models.VideoSubmitted,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	s.mutex.Lock()
	s.jobs[job.ID] = job
	s.ops[job.ID] = op
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.JobStarted("video")
	}

	go s.pollLoop(ctx, provider, job.ID)

	return s.snapshotJob(job.ID), nil
}

// pollLoop 按固定间隔轮询直到终态或上下文取消
func (s *VideoService) pollLoop(ctx context.Context, provider llm.Provider, jobID string) {
	var tracker *ProgressTracker
	if s.progress != nil {
		tracker = s.progress.CreateTracker("video-" + jobID)
	}

	s.transition(jobID, models.VideoPolling, "", "")

	for {
		select {
		case <-ctx.Done():
			s.transition(jobID, models.VideoFailed, "", "任务被取消")
			if tracker != nil {
				tracker.Fail("任务被取消")
			}
			return
		case <-s.clock.After(s.pollInterval):
		}

		s.mutex.RLock()
		op := s.ops[jobID]
		s.mutex.RUnlock()
		if op == nil {
			return
		}

		polled, err := provider.PollVideo(ctx, op)
		if err != nil {
			s.transition(jobID, models.VideoFailed, "", fmt.Sprintf("轮询失败: %v", err))
			if tracker != nil {
				tracker.Fail(err.Error())
			}
			return
		}

		s.mutex.Lock()
		s.ops[jobID] = polled
		s.mutex.Unlock()

		if !polled.Done {
			if tracker != nil {
				tracker.UpdateProgress(50, "视频渲染中...")
			}
			continue
		}

		result, err := provider.FetchVideo(ctx, polled)
		if err != nil {
			s.transition(jobID, models.VideoFailed, "", fmt.Sprintf("取回视频失败: %v", err))
			if tracker != nil {
				tracker.Fail(err.Error())
			}
			return
		}

		s.finishJob(jobID, result)
		if tracker != nil {
			tracker.Complete("视频生成完成")
		}
		return
	}
}

// finishJob 保存视频资产并迁移到终态 ready
func (s *VideoService) finishJob(jobID string, result *llm.VideoResult) {
	dataURI := EncodeDataURI(result.Data, result.MIMEType)

	s.mutex.RLock()
	job := s.jobs[jobID]
	s.mutex.RUnlock()
	if job == nil {
		return
	}

	asset := &models.GeneratedAsset{
		SectionIndex: job.SectionIndex,
		SlotIndex:    job.SlotIndex,
		Kind:         models.AssetVideo,
		DataURI:      dataURI,
		MIMEType:     result.MIMEType,
		CreatedAt:    s.clock.Now(),
	}
	if s.visuals != nil {
		if err := s.visuals.saveAsset(job.Date, asset); err != nil {
			s.transition(jobID, models.VideoFailed, "", fmt.Sprintf("保存视频资产失败: %v", err))
			return
		}
	}

	if s.metrics != nil {
		s.metrics.RecordGeneration("video", job.Date)
	}
	if s.stats != nil {
		s.stats.RecordGeneration("video", 0)
	}

	s.transition(jobID, models.VideoReady, dataURI, "")
}

// transition 状态迁移，终态只写一次
func (s *VideoService) transition(jobID string, state models.VideoJobState, dataURI, errMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.State.Terminal() {
		return
	}

	job.State = state
	job.UpdatedAt = s.clock.Now()
	if dataURI != "" {
		job.DataURI = dataURI
	}
	if errMsg != "" {
		job.Error = errMsg
	}

	if state.Terminal() {
		delete(s.ops, jobID)
		if s.metrics != nil {
			s.metrics.JobFinished("video")
		}
	}
}

// GetJob 按任务ID取状态快照
func (s *VideoService) GetJob(jobID string) (*models.VideoJob, error) {
	job := s.snapshotJob(jobID)
	if job == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("视频任务不存在: %s", jobID), nil)
	}
	return job, nil
}

// ListJobs 按日期列出任务快照
func (s *VideoService) ListJobs(date string) []*models.VideoJob {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var jobs []*models.VideoJob
	for id, job := range s.jobs {
		if job.Date == date {
			snapshot := *s.jobs[id]
			jobs = append(jobs, &snapshot)
		}
	}
	return jobs
}

// snapshotJob 拿任务的值拷贝，避免调用方看到轮询协程的中间态
func (s *VideoService) snapshotJob(jobID string) *models.VideoJob {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// CleanupJobs 清理终态超过 maxAge 的任务记录
func (s *VideoService) CleanupJobs(maxAge time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	for id, job := range s.jobs {
		if job.State.Terminal() && now.Sub(job.UpdatedAt) > maxAge {
			delete(s.jobs, id)
		}
	}
}
