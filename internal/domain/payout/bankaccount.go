package payout

// BankAccount is the verified destination of a disbursement. The Verified
// flag is supplied by the external account-verification collaborator; the
// core only reads it.
type BankAccount struct {
	AccountName   string
	AccountNumber string
	BankCode      string
	BankName      string
	Verified      bool
}

// IsVerified reports whether the account passed external verification.
func (a BankAccount) IsVerified() bool {
	return a.Verified
}
