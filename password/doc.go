// Package password hashes account passwords with Argon2id and enforces the
// length policy applied at registration and reset.
//
// Stored hashes use the PHC string form
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// so parameters can be raised without invalidating existing accounts;
// [Argon2.NeedsUpgrade] reports hashes made with weaker settings.
//
// [Argon2.VerifyDummy] burns the same work as a real check and is used when
// a login names an unknown email.
//
// Plaintext never leaves the call that received it and is never logged.
package password
