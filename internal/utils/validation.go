package utils

import (
	"errors"
	"fmt"

	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// ValidateSnapshotPayload 检查外部提交的排产场景数据的结构一致性：
// 桶宽、计划视野、订单数量和引用完整性。产能层面的问题交给模型的产能校验处理。
func ValidateSnapshotPayload(s *planning.Snapshot) error {
	if s.BucketDays != 1 && s.BucketDays != 7 {
		return fmt.Errorf("不支持的时间桶宽度 %d，只支持 1（日桶）或 7（周桶）", s.BucketDays)
	}
	if s.HorizonDays < s.BucketDays {
		return fmt.Errorf("计划视野 %d 天不能小于时间桶宽度 %d 天", s.HorizonDays, s.BucketDays)
	}
	if s.MinEarlyDeliveryDays < 0 {
		return errors.New("最小提前交付天数不能为负")
	}
	if len(s.SalesOrders) == 0 {
		return errors.New("场景中没有任何销售订单")
	}

	lineNames := make(map[string]bool, len(s.LineRestrictions))
	for _, lr := range s.LineRestrictions {
		if lr.Name == "" {
			return errors.New("存在未命名的产线约束")
		}
		if lineNames[lr.Name] {
			return fmt.Errorf("产线 %q 重复定义", lr.Name)
		}
		lineNames[lr.Name] = true
	}

	operationIDs := make(map[string]bool, len(s.Operations))
	for _, op := range s.Operations {
		if op.OperationID == "" {
			return errors.New("存在没有 ID 的工序")
		}
		if operationIDs[op.OperationID] {
			return fmt.Errorf("工序 %q 重复定义", op.OperationID)
		}
		operationIDs[op.OperationID] = true

		// 工序引用不存在的产线不在这里拦截，优化器会把它按不可排产处理，
		// 但主产线完全缺失说明数据本身有问题
		if op.PrimaryLine == "" {
			return fmt.Errorf("工序 %q 没有指定主产线", op.OperationID)
		}
	}

	orderNumbers := make(map[string]bool, len(s.SalesOrders))
	for _, so := range s.SalesOrders {
		if so.OrderNumber == "" {
			return errors.New("存在没有订单号的销售订单")
		}
		if orderNumbers[so.OrderNumber] {
			return fmt.Errorf("订单 %q 重复定义", so.OrderNumber)
		}
		orderNumbers[so.OrderNumber] = true

		if so.Quantity <= 0 {
			return fmt.Errorf("订单 %q 的数量必须为正", so.OrderNumber)
		}
		if so.PromiseDate.IsZero() {
			return fmt.Errorf("订单 %q 缺少承诺交付日期", so.OrderNumber)
		}
		if len(so.Operations) == 0 {
			return fmt.Errorf("订单 %q 没有任何工序", so.OrderNumber)
		}
	}

	for _, c := range s.PriorityCriteria {
		if c.MaxDelayDays < 0 {
			return fmt.Errorf("优先级 %q 的最大允许延迟天数不能为负", c.CustomerPriority)
		}
		if c.PenaltyMultiplier <= 0 {
			return fmt.Errorf("优先级 %q 的惩罚倍数必须为正", c.CustomerPriority)
		}
	}

	return nil
}
