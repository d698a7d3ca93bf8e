package dao

import "github.com/ego-component/egorm"

// InitTables 初始化本引擎用到的全部表
func InitTables(db *egorm.Component) error {
	return db.AutoMigrate(
		&Alert{},
		&FollowupTask{},
		&Preference{},
	)
}
