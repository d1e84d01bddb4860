package repository

// Entities lists every table the repositories use, for gorm AutoMigrate on sqlite.
// Postgres gets the same schema from the goose migrations.
func Entities() []any {
	return []any{&TransactionEntity{}, &BillingSettingsEntity{}, &UserEntity{}}
}
