package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrConfirmationRequired 破坏性批量操作未携带确认标记
var ErrConfirmationRequired = errors.New("该操作不可撤销，请确认后重试")
