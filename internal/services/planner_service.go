// internal/services/planner_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
)

const (
	plannerDir   = "planner"
	approvedFile = "approved.json"
	plannedFile  = "planned.json"
)

// PlannerService 日历内容的批准与草稿存储
// 键为 "<ISO日期>-<类型>"，整值覆盖写入，后写胜出，无乐观并发检查
type PlannerService struct {
	storage *storage.FileStorage
	locks   *LockManager
}

// NewPlannerService 创建日历规划服务
func NewPlannerService(fileStorage *storage.FileStorage) *PlannerService {
	return &PlannerService{
		storage: fileStorage,
		locks:   NewLockManager(),
	}
}

// ApproveContent 批准内容并按复合键落盘，同键直接整体覆盖
func (s *PlannerService) ApproveContent(content models.ApprovedContent) (models.ApprovedContent, error) {
	if content.Date == "" || content.Type == "" {
		return models.ApprovedContent{}, fmt.Errorf("批准内容缺少日期或类型")
	}

	key := models.ContentKey(content.Date, content.Type)
	content.ID = key
	if content.Timestamp == 0 {
		content.Timestamp = time.Now().UnixMilli()
	}

	lock := s.locks.GetKeyLock(approvedFile)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadApproved()
	if err != nil {
		return models.ApprovedContent{}, err
	}
	records[key] = content

	if err := s.storage.SaveJSONFile(plannerDir, approvedFile, records); err != nil {
		return models.ApprovedContent{}, fmt.Errorf("保存批准内容失败: %w", err)
	}
	return content, nil
}

// GetApproved 按复合键取批准内容
func (s *PlannerService) GetApproved(date string, contentType models.ContentType) (models.ApprovedContent, error) {
	records, err := s.loadApproved()
	if err != nil {
		return models.ApprovedContent{}, err
	}
	record, ok := records[models.ContentKey(date, contentType)]
	if !ok {
		return models.ApprovedContent{}, fmt.Errorf("批准内容不存在: %s-%s", date, contentType)
	}
	return record, nil
}

// ListApproved 返回全部批准内容，按日期+类型稳定排序
func (s *PlannerService) ListApproved() ([]models.ApprovedContent, error) {
	records, err := s.loadApproved()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]models.ApprovedContent, 0, len(keys))
	for _, key := range keys {
		items = append(items, records[key])
	}
	return items, nil
}

// DeleteApproved 删除批准内容
func (s *PlannerService) DeleteApproved(date string, contentType models.ContentType) error {
	lock := s.locks.GetKeyLock(approvedFile)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadApproved()
	if err != nil {
		return err
	}

	key := models.ContentKey(date, contentType)
	if _, ok := records[key]; !ok {
		return fmt.Errorf("批准内容不存在: %s", key)
	}
	delete(records, key)

	return s.storage.SaveJSONFile(plannerDir, approvedFile, records)
}

// SavePlan 保存内容草稿，同键整体覆盖
func (s *PlannerService) SavePlan(plan models.PlannedContent) (models.PlannedContent, error) {
	if plan.Date == "" || plan.Type == "" {
		return models.PlannedContent{}, fmt.Errorf("草稿缺少日期或类型")
	}

	key := models.ContentKey(plan.Date, plan.Type)
	plan.ID = key

	lock := s.locks.GetKeyLock(plannedFile)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadPlanned()
	if err != nil {
		return models.PlannedContent{}, err
	}
	records[key] = plan

	if err := s.storage.SaveJSONFile(plannerDir, plannedFile, records); err != nil {
		return models.PlannedContent{}, fmt.Errorf("保存草稿失败: %w", err)
	}
	return plan, nil
}

// GetPlan 按复合键取草稿
func (s *PlannerService) GetPlan(date string, contentType models.ContentType) (models.PlannedContent, error) {
	records, err := s.loadPlanned()
	if err != nil {
		return models.PlannedContent{}, err
	}
	record, ok := records[models.ContentKey(date, contentType)]
	if !ok {
		return models.PlannedContent{}, fmt.Errorf("草稿不存在: %s-%s", date, contentType)
	}
	return record, nil
}

// ListPlans 返回全部草稿
func (s *PlannerService) ListPlans() ([]models.PlannedContent, error) {
	records, err := s.loadPlanned()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]models.PlannedContent, 0, len(keys))
	for _, key := range keys {
		items = append(items, records[key])
	}
	return items, nil
}

// DeletePlan 按ID删除草稿
func (s *PlannerService) DeletePlan(id string) error {
	lock := s.locks.GetKeyLock(plannedFile)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadPlanned()
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return fmt.Errorf("草稿不存在: %s", id)
	}
	delete(records, id)

	return s.storage.SaveJSONFile(plannerDir, plannedFile, records)
}

// loadApproved 读取批准内容映射，文件不存在时返回空映射
func (s *PlannerService) loadApproved() (map[string]models.ApprovedContent, error) {
	records := make(map[string]models.ApprovedContent)
	if !s.storage.FileExists(plannerDir, approvedFile) {
		return records, nil
	}
	if err := s.storage.LoadJSONFile(plannerDir, approvedFile, &records); err != nil {
		return nil, fmt.Errorf("读取批准内容失败: %w", err)
	}
	return records, nil
}

// loadPlanned 读取草稿映射，文件不存在时返回空映射
func (s *PlannerService) loadPlanned() (map[string]models.PlannedContent, error) {
	records := make(map[string]models.PlannedContent)
	if !s.storage.FileExists(plannerDir, plannedFile) {
		return records, nil
	}
	if err := s.storage.LoadJSONFile(plannerDir, plannedFile, &records); err != nil {
		return nil, fmt.Errorf("读取草稿失败: %w", err)
	}
	return records, nil
}

// PlannerReport 批准内容的构成报表
type PlannerReport struct {
	TotalApproved    int            `json:"total_approved"`
	CountByType      map[string]int `json:"count_by_type"`
	StrategyRepeats  map[string]int `json:"strategy_repeats"`
	MostUsedStrategy string         `json:"most_used_strategy,omitempty"`
}

// BuildReport 统计批准内容的类型分布与策略复用情况
func (s *PlannerService) BuildReport() (*PlannerReport, error) {
	approved, err := s.ListApproved()
	if err != nil {
		return nil, err
	}

	report := &PlannerReport{
		TotalApproved:   len(approved),
		CountByType:     make(map[string]int),
		StrategyRepeats: make(map[string]int),
	}

	for _, item := range approved {
		report.CountByType[string(item.Type)]++
		if item.Strategy != "" {
			report.StrategyRepeats[item.Strategy]++
		}
	}

	best := 0
	for strategy, count := range report.StrategyRepeats {
		if count > best {
			best = count
			report.MostUsedStrategy = strategy
		}
	}
	return report, nil
}
