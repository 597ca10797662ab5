package idstore

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 计数器表的列名大小写混合，所有引用都经 clause.Column 交给方言加引号
const (
	colTableName = "TableName"
	colLastID    = "LastId"
)

// counterRow 计数器表的一行：每个逻辑表一行，LastId 为已预留的最大 ID
type counterRow struct {
	Name   string `gorm:"column:TableName;primaryKey;size:128"`
	LastID int64  `gorm:"column:LastId;not null;default:0"`
}

// TableName 默认表名；Config.CounterTable 通过 db.Table 覆盖
func (counterRow) TableName() string { return DefaultCounterTable }

// ========================================
// 计数器操作（调用方负责事务）
// ========================================

// counterOps 绑定计数器表名的四个原子操作。错误原样返回
type counterOps struct {
	table string
}

func (c counterOps) scope(tx *gorm.DB) *gorm.DB {
	return tx.Table(c.table)
}

func byName(name string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: colTableName}, Value: name}
}

// readLastID 读取 LastId，行不存在时返回 0
func (c counterOps) readLastID(tx *gorm.DB, name string) (int64, error) {
	var row counterRow
	err := c.scope(tx).Where(byName(name)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.LastID, nil
}

func (c counterOps) insertRow(tx *gorm.DB, name string, lastID int64) error {
	return c.scope(tx).Create(&counterRow{Name: name, LastID: lastID}).Error
}

// deleteRow 只删除 LastId 仍为 0 的行。
// MySQL 的 DELETE 是当前读，会命中并发事务刚提交的非零行
func (c counterOps) deleteRow(tx *gorm.DB, name string) error {
	return c.scope(tx).
		Where(byName(name)).
		Where(clause.Eq{Column: clause.Column{Name: colLastID}, Value: 0}).
		Delete(&counterRow{}).Error
}

// incrementLastID 相对存储值自增：SET LastId = LastId + delta。
// 行不存在时影响 0 行且不报错，由随后的校验读发现
func (c counterOps) incrementLastID(tx *gorm.DB, name string, delta int64) error {
	return c.scope(tx).Model(&counterRow{}).Where(byName(name)).
		Update(colLastID, gorm.Expr("? + ?", clause.Column{Name: colLastID}, delta)).Error
}
