package accounts

// Store manages data regarding platform accounts and the active login.
type Store interface {
	Accounts() ([]Account, error)
	Account(alias string) (Account, error)
	InsertAccount(*Account) error
	RemoveAccount(alias string) error

	CurrentSession() (CurrentSession, error)
	SaveCurrentSession(*CurrentSession) error
	ClearCurrentSession() error
}
