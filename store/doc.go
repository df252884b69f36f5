// Package store defines the durable account record and the contract every
// account backend implements.
//
// # Update groups
//
// Writes go through [AccountStore.Update] with a [FieldGroup]. Each group is
// applied atomically by the backend. [RedeemResetToken] and [EnableTOTP] are
// conditional: a backend applies them only while their precondition holds and
// otherwise returns [ErrPreconditionFailed], so two concurrent redemptions of
// the same reset token cannot both succeed.
//
// # Architecture boundaries
//
// This package owns the record shape and lookup criteria. It does NOT hash
// passwords, sign tokens, or decide authentication outcomes.
package store
